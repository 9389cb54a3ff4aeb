// Command algot replays operations recorded by demonstration.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/algot/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err == nil {
		return
	}

	// ExitErrors were already reported by the command; flag and argument
	// errors from cobra were not.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
