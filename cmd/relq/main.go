// Command relq keeps a table manifest in sync with a database and generates
// typed schema handles from it.
package main

import (
	"os"

	"github.com/syssam/relq/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
