package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/mshdb/internal/cli"
	"github.com/roach88/mshdb/internal/logger"
)

func main() {
	err := cli.NewRootCommand().Execute()
	logger.Cleanup()
	if err == nil {
		return
	}

	// Commands report their own errors; anything else is a usage error
	// raised by cobra before a command ran.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.ExitCommandError)
	}
	os.Exit(exitErr.Code)
}
