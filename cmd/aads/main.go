// Command aads tracks players, events and results of the Atlantic
// Armwrestling Development Series.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/aads/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			// Flag parsing and argument errors from cobra; commands print
			// their own.
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
