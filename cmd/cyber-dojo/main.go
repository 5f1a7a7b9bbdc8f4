package main

import "github.com/cyber-dojo/commander/cmd/cyber-dojo/cmd"

func main() {
	cmd.Execute()
}
