package main

import "github.com/drewcrawford/logwise/cmd/logwise/cmd"

func main() {
	cmd.Execute()
}
