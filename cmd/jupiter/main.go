package main

import "jupiter/cmd/jupiter/cmd"

func main() {
	cmd.Execute()
}
