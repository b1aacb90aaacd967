package main

import "github.com/go-digitaltwin/twinview/internal/cli"

func main() {
	cli.Execute()
}
