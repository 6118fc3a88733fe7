package cli

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wgbh/bawstun/pkg/logger"
)

var ErrWatchDirRequired = errors.New("no directory to watch; provide one or set watch.dir in the configuration")

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Ingest and characterize files as they are dropped in to a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withCore(func(c core) error {
				dir := a.config.Watch.Dir
				if len(args) == 1 {
					dir = args[0]
				}
				if dir == "" {
					return ErrWatchDirRequired
				}

				ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
				defer stop()

				log.Emit(logger.INFO, "Press Ctrl+C to stop watching %s\n", dir)
				return c.Watch(ctx, dir)
			})
		},
	}
}
