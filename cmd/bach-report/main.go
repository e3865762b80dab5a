package main

import (
	"fmt"
	"os"

	"github.com/nasa/opera-sds-bach-api/cmd/bach-report/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
