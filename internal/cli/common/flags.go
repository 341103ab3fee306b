package common

import "github.com/spf13/cobra"

// ConfigFlags registers the config source flags shared by every command.
func ConfigFlags(cmd *cobra.Command, opt *LoadOptions) {
	cmd.Flags().StringVarP(&opt.File, "config", "f", DefaultConfigFile, "config file path")
	cmd.Flags().StringSliceVar(&opt.Includes, "include", nil, "extra config files merged in order")
	cmd.Flags().StringVar(&opt.Profile, "profile", "", "profile overlay from profiles.<name>")
	cmd.Flags().String("db", "", "database DSN (overrides db.dsn)")
	cmd.Flags().String("uploads", "", "upload directory for the file driver (overrides storage.base_dir)")
	cmd.Flags().Bool("disable-fts", false, "use substring search instead of FTS5")
	cmd.Flags().String("log-level", "", "debug|info|warn|error")
	cmd.Flags().String("log-format", "", "console|json")
	opt.Flags = cmd.Flags()
}
