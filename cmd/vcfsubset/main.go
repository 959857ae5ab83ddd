package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"vcfsubset/internal/cli"
)

// main is a deterministic boundary: arguments are canonicalized into an
// invocation before any engine logic is invoked, and every outcome is
// reduced to the 0/1 exit-code contract.
func main() {
	// Best-effort: a missing .env is the normal case.
	_ = godotenv.Load()

	code, err := cli.Run(context.Background(), os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(code)
}
