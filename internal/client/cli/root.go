package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gqlwire/internal/client/graphql"
	"gqlwire/internal/shared/config"
)

type options struct {
	configPath string
	endpoint   string
	wsEndpoint string
	headers    []string
	verbose    bool
}

// NewRootCmd builds the gqlwire command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "gqlwire",
		Short:         "GraphQL client for queries, uploads and subscriptions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", "", "GraphQL HTTP endpoint")
	root.PersistentFlags().StringVar(&opts.wsEndpoint, "ws-endpoint", "", "GraphQL WebSocket endpoint")
	root.PersistentFlags().StringArrayVarP(&opts.headers, "header", "H", nil, "extra request header, 'Key: Value' (repeatable)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newQueryCmd(opts),
		newUploadCmd(opts),
		newSubscribeCmd(opts),
		newReplayCmd(opts),
	)
	return root
}

// load resolves the effective config: defaults, then file, then environment,
// then command-line flags.
func (o *options) load() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if o.endpoint != "" {
		cfg.Endpoint = o.endpoint
	}
	if o.wsEndpoint != "" {
		cfg.WSEndpoint = o.wsEndpoint
	}
	headers, err := ParseHeaders(o.headers)
	if err != nil {
		return nil, err
	}
	for key, value := range headers {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string)
		}
		cfg.Headers[key] = value
	}
	return cfg, nil
}

func (o *options) logger() (*zap.Logger, error) {
	if o.verbose {
		return zap.NewDevelopment()
	}
	return zap.NewNop(), nil
}

// newClient builds the HTTP client from the resolved config.
func newClient(cfg *config.Config, logger *zap.Logger) *graphql.Client {
	opts := []graphql.Option{graphql.WithLogger(logger)}
	if cfg.APIKey != "" {
		opts = append(opts, graphql.WithAPIKey(cfg.APIKey))
	}
	for key, value := range cfg.Headers {
		opts = append(opts, graphql.WithHeader(key, value))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, graphql.WithTimeout(cfg.Timeout))
	}
	return graphql.NewClient(cfg.Endpoint, opts...)
}
