package main

import "github.com/hearthkeep/hearthkeep/internal/cli"

func main() {
	cli.Execute()
}
