package main

import "github.com/YuminosukeSato/co2bench/internal/cli"

func main() {
	cli.Execute()
}
