package servecmd

import (
	"fmt"

	"github.com/cuihairu/gamelink/internal/api/handler"
	"github.com/cuihairu/gamelink/internal/api/svc"
	"github.com/cuihairu/gamelink/internal/cli/common"
	"github.com/spf13/cobra"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest"
)

// New returns the `gamelink serve` command.
func New() *cobra.Command {
	var opt common.LoadOptions
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Provision the database and run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := common.LoadConfig(opt)
			if err != nil {
				return err
			}
			common.SetupLogging(c.Logging)

			svcCtx, err := svc.Open(cmd.Context(), *c)
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			defer func() {
				if err := svcCtx.Close(); err != nil {
					logx.Errorf("shutdown: %v", err)
				}
			}()

			server, err := rest.NewServer(c.RestConf)
			if err != nil {
				return err
			}
			defer server.Stop()
			handler.RegisterHandlers(server, svcCtx)

			logx.Infof("starting gamelink at %s:%d", c.Host, c.Port)
			server.Start()
			return nil
		},
	}
	common.ConfigFlags(cmd, &opt)
	cmd.Flags().Int("port", 0, "listen port (overrides port)")
	return cmd
}
