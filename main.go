package main

import "github.com/saltyorg/ftd/cmd"

func main() {
	cmd.Execute()
}
