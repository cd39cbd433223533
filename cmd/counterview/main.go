package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robbyt/go-counterview/cmd/counterview/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args[1:]); err != nil {
		stop()
		os.Exit(1)
	}
}
