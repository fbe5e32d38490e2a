package main

import "github.com/timvw/gdbdrive/cmd"

func main() {
	cmd.Execute()
}
