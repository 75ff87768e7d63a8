package main

import "github.com/expopass/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
