package main

import "github.com/histmap/histmap/cmd"

func main() {
	cmd.Execute()
}
