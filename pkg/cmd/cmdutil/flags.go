package cmdutil

import "github.com/spf13/pflag"

// PersistentFlags defines the flags for environments
func PersistentFlags(flags *pflag.FlagSet) {
	flags.String("slack-token", "", "slack token")
	flags.String("metrics-addr", "", "serve the prometheus metrics on this address")
}
