package main

import "github.com/mcoot/teambalancer/internal/cli"

func main() {
	cli.Execute()
}
