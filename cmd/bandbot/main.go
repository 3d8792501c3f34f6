package main

import (
	"github.com/c9s/bandbot/pkg/cmd"
)

func main() {
	cmd.Execute()
}
