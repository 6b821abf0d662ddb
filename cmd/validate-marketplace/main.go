package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/chaz8081/validate-marketplace/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		// the report already explains a failed validation
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
