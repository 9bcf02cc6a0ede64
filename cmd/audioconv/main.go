package main

import "github.com/forPelevin/audioconv/internal/cli"

func main() {
	cli.Main()
}
