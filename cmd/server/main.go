package main

import (
	"fmt"
	"os"

	"github.com/quackextractor/wordrush/internal/cli"
)

func main() {
	if err := cli.NewCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
