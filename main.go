package main

import "stakeregistry/cmd"

func main() {
	cmd.Execute()
}
