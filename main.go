// schemaorder is a CLI tool that orders database tables by their foreign key
// dependencies so that data can be loaded or deleted without violating
// referential integrity.
//
// See README.md for usage documentation.
package main

import (
	"fmt"
	"os"

	"github.com/riyasyash/schemaorder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
