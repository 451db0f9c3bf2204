// Package main provides the userdb command-line tool.
package main

import (
	"os"

	"github.com/syssam/userdb/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
