package main

import "github.com/amterp/postdeck/internal/cli"

func main() {
	cli.Run()
}
