package main

import (
	"fmt"
	"os"

	"github.com/danmuck/slime/internal/boot"
	"github.com/danmuck/slime/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "slime: %v\n", err)
		os.Exit(boot.ExitCode(err))
	}
}
