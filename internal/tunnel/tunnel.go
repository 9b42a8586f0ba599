// Package tunnel provisions a publicly reachable base URL for the local
// server by opening an HTTP endpoint through the ngrok agent. Meta only
// redirects to public HTTPS callback URLs, so local development needs one.
package tunnel

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"golang.ngrok.com/ngrok"
	ngrokconfig "golang.ngrok.com/ngrok/config"

	"github.com/zapdesk/signup-harness/internal/conf"
)

// Tunnel is a listener with a public URL. Requests accepted from it must be
// served with the same handler as the local listener.
type Tunnel interface {
	net.Listener
	URL() string
}

// Open establishes a tunnel session and returns its public endpoint. The
// authtoken is optional; without one the agent falls back to an anonymous
// session when the ngrok service allows it.
func Open(ctx context.Context, config conf.TunnelConfiguration) (Tunnel, error) {
	opts := []ngrok.ConnectOption{}
	if config.Authtoken != "" {
		opts = append(opts, ngrok.WithAuthtoken(config.Authtoken))
	}

	tun, err := ngrok.Listen(ctx, ngrokconfig.HTTPEndpoint(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "error opening tunnel endpoint")
	}
	return tun, nil
}
