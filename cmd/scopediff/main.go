// Command scopediff compares an adjuster estimate file with a contractor
// estimate file and prints the ranked variances.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "scopediff:", err)
		os.Exit(exitError)
	}
}
