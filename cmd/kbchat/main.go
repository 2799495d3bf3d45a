package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/coral-mesh/kbchat/internal/cli"
	"github.com/coral-mesh/kbchat/internal/cli/helpers"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.Execute(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, helpers.ErrDegraded) {
			_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
