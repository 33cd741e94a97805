package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/nivconf/internal/config/notify"
	"github.com/dshills/nivconf/internal/config/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		interval time.Duration
		prefix   string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print configuration changes as they happen",
		Long: `Load the layered configuration, then print every changed key when a
config file is written. Files are polled on --interval and also watched
for filesystem events. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}
			if _, err := m.Effective(); err != nil {
				return err
			}

			n := notify.New()
			defer n.Close()
			n.SubscribePath(prefix, func(c notify.Change) {
				fmt.Fprintf(a.out, "%s %s\n", time.Now().Format(time.TimeOnly), c)
			})

			var files []string
			for _, l := range m.Layers() {
				if l.Loader != nil {
					files = append(files, l.Loader.Candidates()...)
				}
			}

			w := watcher.New(m,
				watcher.WithInterval(interval),
				watcher.WithFSNotify(files...),
				watcher.WithRateLimit(250*time.Millisecond),
				watcher.WithNotifier(n),
				watcher.WithErrorHandler(func(err error) {
					fmt.Fprintf(a.errOut, "reload failed: %v\n", err)
				}),
				watcher.WithLogger(a.logger),
			)
			a.logger.Info("watching config", "files", len(files), "interval", interval)
			return w.Run(cmd.Context())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Polling interval (0 disables polling)")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Only print changes under this dotted path")
	return cmd
}
