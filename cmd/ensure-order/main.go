package main

import (
	"fmt"
	"os"

	"github.com/kingrea/nbtidy/internal/cli"
	"github.com/kingrea/nbtidy/internal/passes/defguard"
)

func main() {
	if err := cli.NewCommand(defguard.ID).Execute(); err != nil {
		die("ensure-order: %v", err)
	}
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
