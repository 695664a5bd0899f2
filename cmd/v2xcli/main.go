package main

import (
	"github.com/robotalks/v2x.go/pkg/cli/sh"
	"github.com/robotalks/v2x.go/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetRole("cli", "", "", "")
	env.SetupFlags()
}

func main() {
	sh.Main()
}
