// Command lnquery runs SQL against Infor LN SOAP and REST services.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/lnquery/internal/cli"
)

func main() {
	err := cli.NewRootCommand().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "lnquery:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
