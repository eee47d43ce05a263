// Package main is the icepick command: a Titanfall 2 mod manager and SDK
// launcher.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
