package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/cuihairu/gamelink/internal/cli/provisioncmd"
	"github.com/cuihairu/gamelink/internal/cli/servecmd"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:          "gamelink",
		Short:        "Game catalog with WhatsApp checkout",
		SilenceUsage: true,
	}
	root.AddCommand(servecmd.New())
	root.AddCommand(provisioncmd.New())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
