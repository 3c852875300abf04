package main

import "github.com/auravoice/auravoice/cmd"

func main() {
	cmd.Execute()
}
