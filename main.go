package main

import "github.com/agentic-research/targetdiff/cmd"

func main() {
	cmd.Execute()
}
