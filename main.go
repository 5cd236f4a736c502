package main

import (
	"github.com/foomo/gistkv/cmd"
)

func main() {
	cmd.Execute()
}
