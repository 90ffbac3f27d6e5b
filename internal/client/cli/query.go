package cli

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"gqlwire/internal/client/cli/ui"
	"gqlwire/internal/client/graphql"
)

func newQueryCmd(opts *options) *cobra.Command {
	var (
		operationName string
		varFlags      []string
	)

	cmd := &cobra.Command{
		Use:   "query <document>",
		Short: "Execute a query or mutation",
		Args:  cobra.ExactArgs(1),
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

			client := newClient(cfg, logger)
			resp, err := client.Do(cmd.Context(), graphql.Request{
				Query:         args[0],
				OperationName: operationName,
				Variables:     vars,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&operationName, "operation", "", "operation name when the document has several")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "variable, key=value with JSON values (repeatable)")
	return cmd
}

// printResponse renders data as indented JSON and errors as a table. A
// response with errors makes the command fail.
func printResponse(cmd *cobra.Command, resp *graphql.Response) error {
	if len(resp.Data) > 0 {
		pretty, err := json.MarshalIndent(json.RawMessage(resp.Data), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(pretty))
	}

	if len(resp.Errors) == 0 {
		return nil
	}

	table := ui.NewTable([]string{"Message", "Path"}).WithTitle("Errors")
	for _, e := range resp.Errors {
		table.AddRow(e.Message, pathString(e.Path))
	}
	fmt.Fprint(cmd.ErrOrStderr(), ui.ErrorStyle.Render(table.Render()))
	return fmt.Errorf("request returned %d error(s)", len(resp.Errors))
}

func pathString(path []any) string {
	if len(path) == 0 {
		return ""
	}
	out := ""
	for i, segment := range path {
		if i > 0 {
			out += "."
		}
		out += fmt.Sprint(segment)
	}
	return out
}
