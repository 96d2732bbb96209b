package main

import "github.com/DrSkyle/pierwatch/cmd/pierwatch/commands"

func main() {
	commands.Execute()
}
