package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"unifiedpro/internal/app/salaryctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := salaryctl.Main(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
