package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/arthur-debert/forge/pkg/errors"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if details := errors.GetErrorDetails(err); len(details) > 0 {
			keys := make([]string, 0, len(details))
			for k := range details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(os.Stderr, "  %s: %v\n", k, details[k])
			}
		}
		os.Exit(1)
	}
}
