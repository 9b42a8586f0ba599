package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var shutdownWaitGroup sync.WaitGroup

// WaitForShutdown blocks until all servers started through this package have
// finished shutting down.
func WaitForShutdown() {
	shutdownWaitGroup.Wait()
}

// ListenAndServe starts the API on the local address and blocks until ctx is
// canceled.
func (a *API) ListenAndServe(ctx context.Context, hostAndPort string) {
	baseCtx, cancel := context.WithCancel(context.Background())

	log := logrus.WithField("component", "api")

	server := &http.Server{
		Addr:              hostAndPort,
		Handler:           a.handler,
		ReadHeaderTimeout: 2 * time.Second, // to mitigate a Slowloris attack
		BaseContext: func(net.Listener) context.Context {
			return baseCtx
		},
	}

	shutdownWaitGroup.Add(1)
	go func() {
		defer shutdownWaitGroup.Done()

		<-ctx.Done()

		defer cancel() // close baseContext

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Minute)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("shutdown failed")
		}
	}()

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.WithError(err).Fatal("http server listen failed")
	}
}

// Serve runs the API on an already-open listener, e.g. a tunnel endpoint.
func (a *API) Serve(ctx context.Context, ln net.Listener) {
	log := logrus.WithField("component", "api")

	server := &http.Server{
		Handler:           a.handler,
		ReadHeaderTimeout: 2 * time.Second,
	}

	shutdownWaitGroup.Add(1)
	go func() {
		defer shutdownWaitGroup.Done()

		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Minute)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("tunnel shutdown failed")
		}
	}()

	if err := server.Serve(ln); err != http.ErrServerClosed {
		log.WithError(err).Error("tunnel serve failed")
	}
}
