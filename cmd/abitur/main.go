// Command abitur runs the admission campaign toolkit: the HTTP server plus
// offline import, report, data generation and reset.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
