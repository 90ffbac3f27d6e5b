package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gqlwire/internal/client/graphql"
	"gqlwire/internal/shared/upload"
)

func newUploadCmd(opts *options) *cobra.Command {
	var (
		operationName string
		varFlags      []string
		fileFlags     []string
	)

	cmd := &cobra.Command{
		Use:   "upload <document>",
		Short: "Execute a mutation with file attachments",
		Long: `Execute a mutation as a multipart request. Files given as var=path are
bound to that variable; bare paths are appended to the files variable.`,
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

			var files []upload.File
			for _, flag := range fileFlags {
				key, path, bound := strings.Cut(flag, "=")
				if !bound {
					path = flag
				}
				file, err := upload.Open(path)
				if err != nil {
					return err
				}
				if bound {
					if vars == nil {
						vars = make(map[string]any)
					}
					vars[key] = file
				} else {
					files = append(files, file)
				}
			}

			client := newClient(cfg, logger)
			resp, err := client.Do(cmd.Context(), graphql.Request{
				Query:         args[0],
				OperationName: operationName,
				Variables:     vars,
				Files:         files,
			})
			if err != nil {
				return err
			}
			return printResponse(cmd, resp)
		},
	}

	cmd.Flags().StringVar(&operationName, "operation", "", "operation name when the document has several")
	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "variable, key=value with JSON values (repeatable)")
	cmd.Flags().StringArrayVar(&fileFlags, "file", nil, "file attachment, var=path or path (repeatable)")
	return cmd
}
