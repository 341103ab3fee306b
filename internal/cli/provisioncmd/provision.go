package provisioncmd

import (
	"fmt"
	"strings"

	"github.com/cuihairu/gamelink/internal/cli/common"
	"github.com/cuihairu/gamelink/internal/db"
	"github.com/cuihairu/gamelink/internal/provision"
	"github.com/spf13/cobra"
)

// New returns the `gamelink provision` command. It runs the same
// provisioning as serve and exits, which suits init containers and CI.
func New() *cobra.Command {
	var opt common.LoadOptions
	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Create or upgrade the schema, seed reference data and admins",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.LoadConfig(opt)
			if err != nil {
				return err
			}
			common.SetupLogging(c.Logging)

			gdb, err := db.Open(c.DB)
			if err != nil {
				return err
			}
			defer db.Close(gdb)

			rep, err := provision.Run(cmd.Context(), gdb, c.ProvisionOptions())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "search engine: %s\n", rep.SearchEngine)
			if rep.FTSError != nil {
				fmt.Fprintf(out, "fts unavailable: %v\n", rep.FTSError)
			}
			if len(rep.AdminsCreated) > 0 {
				fmt.Fprintf(out, "admins created: %s\n", strings.Join(rep.AdminsCreated, ", "))
			}
			if len(rep.AdminsExisting) > 0 {
				fmt.Fprintf(out, "admins kept: %s\n", strings.Join(rep.AdminsExisting, ", "))
			}
			fmt.Fprintf(out, "done in %s\n", rep.Duration)
			return nil
		},
	}
	common.ConfigFlags(cmd, &opt)
	return cmd
}
