// Command sdscan scans files and streams for structured sensitive data.
package main

import (
	"os"
)

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
