package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/babybook/internal/client"
	"github.com/templui/babybook/internal/config"
	"github.com/templui/babybook/internal/logger"
)

var (
	serverURL string
	token     string
	password  string
	verbose   bool
)

func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&serverURL, "server", envOr("BABYCTL_SERVER", "http://localhost:3000"), "babybook server URL")
	root.PersistentFlags().StringVar(&token, "token", os.Getenv("BABYCTL_TOKEN"), "session token (see babyctl token)")
	root.PersistentFlags().StringVar(&password, "password", "", "access password, used when no token is given")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.Init(verbose, "", "")
	}
}

// loadConfig reads the server configuration for commands that work on the database
// or the bucket directly.
func loadConfig() *config.Config {
	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", "development")
	}
	return config.Load()
}

// apiClient returns a client logged in with --token, or with --password when set.
func apiClient(ctx context.Context) (*client.Client, error) {
	c := client.New(serverURL, client.WithToken(token))
	if token == "" && password != "" {
		if _, err := c.Login(ctx, password); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
