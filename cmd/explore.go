package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/histmap/histmap/pkg/catalog"
	"github.com/histmap/histmap/pkg/polity"
	"github.com/histmap/histmap/pkg/session"
	"github.com/spf13/cobra"
)

const exploreHelp = `Commands:
  year <N>            move the timeline (negative years are BC)
  list                show the polities active in the current year
  select <id>         select a polity and load its summaries
  click <lat> <lon>   select the first active polity covering a point
  state               show the current selection
  help                show this help
  quit                leave`

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Interactive timeline session in the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog(cmd.Context())
		if err != nil {
			return err
		}
		agg, err := newAggregator(cmd)
		if err != nil {
			return err
		}
		year, err := yearFlag(cmd)
		if err != nil {
			return err
		}

		out := &syncWriter{w: cmd.OutOrStdout()}
		view := session.TextView{W: out}
		ctrl := session.NewController(c, agg, view, view, year)
		return runExplore(cmd.Context(), cmd.InOrStdin(), out, c, ctrl)
	},
}

// runExplore reads commands until quit or end of input. Detail loads finish
// in the background and print when they resolve.
func runExplore(ctx context.Context, in io.Reader, out io.Writer, c *catalog.Catalog, ctrl *session.Controller) error {
	fmt.Fprintln(out, exploreHelp)
	ctrl.SetYear(ctrl.State().Year)

	var pending []<-chan struct{}
	defer func() {
		// Let in-flight loads print before returning.
		for _, p := range pending {
			select {
			case <-p:
			case <-ctx.Done():
			}
		}
	}()

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "\n[%s]> ", polity.FormatYear(ctrl.State().Year))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit", "q":
			return nil
		case "help", "?":
			fmt.Fprintln(out, exploreHelp)
		case "year", "y":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: year <N>")
				continue
			}
			y, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintf(out, "invalid year %q\n", fields[1])
				continue
			}
			ctrl.SetYear(y)
		case "list", "ls":
			session.TextView{W: out}.DrawActive(c.ActiveAt(ctrl.State().Year))
		case "select", "s":
			if len(fields) != 2 {
				fmt.Fprintln(out, "usage: select <id>")
				continue
			}
			p, err := lookupPolity(c, fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			pending = append(pending, ctrl.Select(ctx, p))
		case "click":
			if len(fields) != 3 {
				fmt.Fprintln(out, "usage: click <lat> <lon>")
				continue
			}
			lat, err1 := strconv.ParseFloat(fields[1], 64)
			lon, err2 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil {
				fmt.Fprintln(out, "invalid coordinates")
				continue
			}
			hits := c.ActiveAtPoint(ctrl.State().Year, polity.Point{Lat: lat, Lon: lon})
			if len(hits) == 0 {
				fmt.Fprintln(out, "nothing highlighted there")
				continue
			}
			pending = append(pending, ctrl.Select(ctx, hits[0]))
		case "state":
			st := ctrl.State()
			if !st.Selected() {
				fmt.Fprintf(out, "year %s, nothing selected\n", polity.FormatYear(st.Year))
				continue
			}
			fmt.Fprintf(out, "year %s, selected %s (at %s)\n", polity.FormatYear(st.Year), st.Polity.Name, polity.FormatYear(st.SelectedYear))
		default:
			fmt.Fprintf(out, "unknown command %q, try help\n", fields[0])
		}
	}
}

// syncWriter serializes writes from the prompt loop and background loads.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func init() {
	rootCmd.AddCommand(exploreCmd)
	exploreCmd.Flags().IntP("year", "y", 0, "Starting year (default timeline.default_year)")
}
