package main

import (
	"context"
	"fmt"
	"os"

	"github.com/odyssey-erp/odyssey-retail/cmd/retail/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "retail:", err)
		os.Exit(1)
	}
}
