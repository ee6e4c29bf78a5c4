package main

import "mailwire/internal/cli"

func main() {
	cli.Execute()
}
