package main

import (
	"github.com/dmitrijs2005/questkeeper/internal/cli"
)

func main() {
	cli.Execute()
}
