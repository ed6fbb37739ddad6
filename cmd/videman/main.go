package main

import "github.com/mkrastev/videman/cmd/videman/cmd"

func main() {
	cmd.Execute()
}
