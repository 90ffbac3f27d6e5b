package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gqlwire/internal/client/cli/ui"
)

func newReplayCmd(_ *options) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <recording>",
		Short: "Print the events of a recorded subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			events, err := ReadRecording(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, ev := range events {
				fmt.Fprintf(out, "%s %s\n",
					ui.EventStyle.Render(ev.ReceivedAt.Format(time.RFC3339)),
					string(ev.Payload),
				)
			}
			fmt.Fprintf(out, "%d event(s)\n", len(events))
			return nil
		},
	}
}
