// Command tea records, replays and inspects runs of the demo program.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tea/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()

	// Command errors are already reported by the formatter. Anything else
	// comes from cobra itself: bad flags, wrong argument count.
	var exitErr *cli.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(cli.GetExitCode(err))
}
