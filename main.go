package main

import (
	"github.com/autobrr/tcm/cmd"
)

func main() {
	cmd.Execute()
}
