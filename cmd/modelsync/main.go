// Command modelsync edits diagrams whose meta-model, instance model and
// representation model are kept consistent.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/modelsync/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
