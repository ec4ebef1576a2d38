package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) eventsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "events",
		Short: "Follow supervisor lifecycle events published to Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.redis == nil {
				return fmt.Errorf("events: set redisAddr (or BIGBOOKS_REDIS_ADDR) to follow lifecycle events")
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			stream, unsubscribe := a.bus.Subscribe(ctx)
			defer unsubscribe()

			errCh := make(chan error, 1)
			go func() { errCh <- a.bus.Follow(ctx) }()

			fmt.Fprintf(a.stderr, "Following %s (Ctrl+C to stop)\n", a.bus.Channel())
			for {
				select {
				case evt, ok := <-stream:
					if !ok {
						return nil
					}
					if a.output == "json" {
						if err := printJSON(a.stdout, evt); err != nil {
							return err
						}
						continue
					}
					fmt.Fprintf(a.stdout, "%s  %-20s %s\n", evt.Timestamp.Format("15:04:05.000"), evt.Type, mustJSON(evt.Data))
				case err := <-errCh:
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
			}
		},
	}
}
