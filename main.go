package main

import "github.com/devicelab-dev/pagedriver/pkg/cli"

func main() {
	cli.Execute()
}
