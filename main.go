package main

import "github.com/vuvur/cli/cmd"

func main() {
	cmd.Execute()
}
