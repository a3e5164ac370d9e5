// Command blogctl drives the blog from a terminal against the same store the
// server uses.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := execute(defaultEnv(), nil); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
