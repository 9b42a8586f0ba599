package cmd

import (
	"context"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zapdesk/signup-harness/internal/api"
	"github.com/zapdesk/signup-harness/internal/observability"
	"github.com/zapdesk/signup-harness/internal/tunnel"
	"github.com/zapdesk/signup-harness/internal/utilities"
)

var serveCmd = cobra.Command{
	Use:  "serve",
	Long: "Start the signup harness server",
	Run: func(cmd *cobra.Command, args []string) {
		serve(cmd.Context())
	},
}

func serve(ctx context.Context) {
	config := loadGlobalConfig()

	if err := observability.ConfigureLogging(&config.Logging); err != nil {
		logrus.WithError(err).Error("unable to configure logging")
	}

	// The public base URL must be resolved before the API is built so that
	// every handler sees the same callback address for the whole process
	// lifetime.
	publicURL := config.API.PublicURL
	var tun tunnel.Tunnel
	if publicURL == "" && config.Tunnel.Enabled {
		var err error
		tun, err = tunnel.Open(ctx, config.Tunnel)
		if err != nil {
			logrus.WithError(err).Warn("could not provision a public URL; OAuth routes will be unavailable")
		} else {
			publicURL = tun.URL()
			logrus.Infof("public URL provisioned: %s", publicURL)
		}
	}
	if publicURL == "" && !config.Tunnel.Enabled {
		logrus.Warn("tunnel disabled and no fixed public URL configured; OAuth routes will be unavailable")
	}

	a := api.NewAPIWithVersion(config, publicURL, utilities.Version)

	if tun != nil {
		go a.Serve(ctx, tun)
	}

	addr := net.JoinHostPort(config.API.Host, config.API.Port)
	logrus.Infof("signup harness started on: %s", addr)

	a.ListenAndServe(ctx, addr)
	api.WaitForShutdown()
}
