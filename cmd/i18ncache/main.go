// i18ncache is an operator tool for compacted translation cache files:
// it inspects frame headers, lists schema keys, verifies fingerprints
// against source trees, and browses decoded values interactively.
package main

import (
	"os"

	"github.com/Shopify/i18n/cmd/i18ncache/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
