package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/blackwell-systems/sysup/internal/app"
)

func main() {
	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, app.ErrPartial) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
