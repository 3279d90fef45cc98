// Package main is the entry point of the cairokit command.
package main

import (
	"errors"
	"os"

	"github.com/leapstack-labs/cairokit/internal/cli"
	"github.com/leapstack-labs/cairokit/internal/toolchain"
)

func main() {
	os.Exit(exitCode(cli.Execute()))
}

// exitCode maps a command error to the process exit status. A failed
// compile exits with the compiler's own status.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *toolchain.ExitError
	if errors.As(err, &exitErr) && exitErr.Code > 0 {
		return exitErr.Code
	}
	return 1
}
