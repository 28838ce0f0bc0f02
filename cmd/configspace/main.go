// Command configspace inspects, samples and tunes configuration spaces
// declared in YAML study files.
package main

import (
	"os"
)

func main() {
	if err := newRootCommand(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}
