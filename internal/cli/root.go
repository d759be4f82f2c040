// Package cli implements storefrontctl, the command line client of the
// storefront API.
package cli

import (
	"os"

	"github.com/SamuelMMedeiros/BV-Celular-sub002/pkg/gateway"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	apiURL  string
	token   string
	verbose bool
}

// NewRootCmd builds the storefrontctl command tree
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "storefrontctl",
		Short:         "Command line client for the BV Celular storefront",
		Long:          "storefrontctl manages the BV Celular catalog and push notifications through the storefront API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", envOr("STOREFRONT_API_URL", "http://localhost:8080"), "storefront API base URL")
	cmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("STOREFRONT_TOKEN"), "access token (see 'storefrontctl login')")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log requests")

	cmd.AddCommand(
		newLoginCmd(opts),
		newProductsCmd(opts),
		newPushCmd(opts),
		newDBCmd(),
	)
	return cmd
}

// Execute runs the CLI
func Execute() error {
	cmd := NewRootCmd()
	err := cmd.Execute()
	if err != nil {
		printError(cmd.ErrOrStderr(), "%v", err)
	}
	return err
}

func (o *options) client() *gateway.Client {
	log := zap.NewNop()
	if o.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			log = l
		}
	}
	return gateway.NewClient(o.apiURL, log)
}

func (o *options) requireToken() error {
	if o.token == "" {
		return errNoToken
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
