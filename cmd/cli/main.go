package main

import (
	"github.com/tobyv/guesswho/internal/cli"
)

func main() {
	cli.Execute()
}
