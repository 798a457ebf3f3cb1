package main

import "github.com/Davknapp/tnodes/cmd/tnodesctl/cmd"

func main() {
	cmd.Execute()
}
