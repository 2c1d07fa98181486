package main

import "github.com/coldicp/mailtools/cmd/mailtools-cli/commands"

func main() {
	commands.Execute()
}
