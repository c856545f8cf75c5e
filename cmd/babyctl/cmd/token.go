package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/babybook/internal/service"
)

func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Print a session token signed with ACCESS_PASSWORD",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			auth := service.NewAuthService(cfg.AccessPassword, cfg.AuthTokenTTL, cfg.IsProduction())
			if !auth.Enabled() {
				return errors.New("ACCESS_PASSWORD is not set, the server does not require a token")
			}
			fmt.Println(auth.Codec().Issue())
			return nil
		},
	}
}
