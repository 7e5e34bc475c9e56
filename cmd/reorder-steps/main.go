package main

import (
	"fmt"
	"os"

	"github.com/kingrea/nbtidy/internal/cli"
	"github.com/kingrea/nbtidy/internal/passes/steporder"
)

func main() {
	if err := cli.NewCommand(steporder.ID).Execute(); err != nil {
		die("reorder-steps: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
