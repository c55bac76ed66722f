package main

import (
	"github.com/watchthis/user-service/internal/cli"
)

// Version information - set at build time via ldflags
var Version = "dev"

func main() {
	cli.Execute(Version)
}
