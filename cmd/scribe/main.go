package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.design/x/hotkey/mainthread"

	"github.com/florianilch/scribe/cmd/scribe/commands"
)

func main() {
	// Global hotkeys must be registered from the OS main thread on macOS.
	mainthread.Init(run)
}

func run() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
