package main

import "github.com/strrl/copycat/cmd/copycat/commands"

func main() {
	commands.Execute()
}
