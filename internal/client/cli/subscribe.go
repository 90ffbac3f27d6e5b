package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gqlwire/internal/client/cli/ui"
	"gqlwire/internal/client/graphql"
)

func newSubscribeCmd(opts *options) *cobra.Command {
	var (
		operationName string
		varFlags      []string
		recordPath    string
	)

	cmd := &cobra.Command{
		Use:   "subscribe <document>",
		Short: "Run a subscription and stream its events",
		Long: `Run a subscription and print each event as it arrives. The stream runs
until the server completes it or the command is interrupted. With --record
every event is also appended to a msgpack recording for later replay.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, err := opts.logger()
			if err != nil {
				return err
			}
			defer logger.Sync()

			vars, err := ParseVars(varFlags)
			if err != nil {
				return err
			}

			var recorder *Recorder
			if recordPath != "" {
				recorder, err = OpenRecorder(recordPath)
				if err != nil {
					return err
				}
				defer recorder.Close()
			}

			subOpts := []graphql.SubscriptionOption{
				graphql.WithSubscriptionLogger(logger),
				graphql.WithKeepAliveInterval(cfg.KeepAliveInterval),
				graphql.WithReconnectBaseDelay(cfg.ReconnectBaseDelay),
				graphql.WithMaxReconnectAttempts(cfg.MaxReconnectAttempts),
			}
			if len(cfg.ConnectionParams) > 0 {
				subOpts = append(subOpts, graphql.WithConnectionParams(cfg.ConnectionParams))
			}
			client := graphql.NewSubscriptionClient(cfg.WSEndpoint, subOpts...)
			defer client.Close()

			done := make(chan struct{})
			out := cmd.OutOrStdout()
			errOut := cmd.ErrOrStderr()

			unsubscribe, err := client.Subscribe(cmd.Context(), graphql.Operation{
				Query:         args[0],
				OperationName: operationName,
				Variables:     vars,
			}, graphql.Handlers{
				OnNext: func(payload json.RawMessage) {
					stamp := time.Now()
					fmt.Fprintf(out, "%s %s\n",
						ui.EventStyle.Render(stamp.Format(time.RFC3339)),
						string(payload),
					)
					if recorder != nil {
						if err := recorder.Record(Event{ReceivedAt: stamp, Payload: payload}); err != nil {
							logger.Warn("recording failed", zap.Error(err))
						}
					}
				},
				OnError: func(err error) {
					fmt.Fprintln(errOut, ui.ErrorStyle.Render("error: "+err.Error()))
				},
				OnComplete: func() {
					close(done)
				},
			})
			if err != nil {
				return err
			}

			interrupt := make(chan os.Signal, 1)
			signal.Notify(interrupt, os.Interrupt)
			defer signal.Stop(interrupt)

			select {
			case <-done:
				return nil
			case <-interrupt:
				unsubscribe()
				return nil
			case <-cmd.Context().Done():
				unsubscribe()
				return cmd.Context().Err()
			}
		},
	}

	cmd.Flags().StringVar(&operationName, "operation", "", "operation name when the document has several")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "variable, key=value with JSON values (repeatable)")
	cmd.Flags().StringVar(&recordPath, "record", "", "append events to a msgpack recording file")
	return cmd
}
