package api

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/didip/tollbooth/v5"
	"github.com/didip/tollbooth/v5/limiter"
	"github.com/rs/cors"
	"github.com/sebest/xff"
	"github.com/sirupsen/logrus"
	"github.com/zapdesk/signup-harness/internal/api/provider"
	"github.com/zapdesk/signup-harness/internal/conf"
	"github.com/zapdesk/signup-harness/internal/observability"
)

const callbackPath = "/integrations/meta/whatsapp/callback"

// API is the HTTP front door of the signup harness.
type API struct {
	handler http.Handler
	config  *conf.GlobalConfiguration
	version string

	// publicURL is the externally reachable base URL resolved once at
	// startup, or empty when provisioning failed. OAuth routes refuse to
	// run without it instead of crashing.
	publicURL string

	provider *provider.Meta
}

// NewAPIWithVersion creates the API using the specified version string.
func NewAPIWithVersion(globalConfig *conf.GlobalConfiguration, publicURL, version string) *API {
	api := &API{
		config:    globalConfig,
		version:   version,
		publicURL: publicURL,
	}
	api.provider = provider.NewMetaProvider(globalConfig.Meta, publicURL+callbackPath)

	xffmw, _ := xff.Default()
	logger := observability.NewStructuredLogger(logrus.StandardLogger())

	r := newRouter()
	r.Use(addRequestID(globalConfig))
	r.Use(xffmw.Handler)
	r.Use(logger)
	r.Use(recoverer)

	r.Get("/health", api.HealthCheck)
	r.Get("/", api.Landing)
	r.Get("/connect", api.Connect)
	r.Get(callbackPath, api.Callback)
	r.Get("/try-send", api.TrySendForm)

	// one send per second per client keeps test-form retries from hammering
	// the Cloud API
	sendLimiter := tollbooth.NewLimiter(1, &limiter.ExpirableOptions{
		DefaultExpirationTTL: time.Hour,
	}).SetBurst(5).SetMethods([]string{"POST"})
	r.With(api.limitHandler(sendLimiter)).Post("/whatsapp/send-text", api.SendText)

	if dir := globalConfig.API.StaticDir; dir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(dir)))
		r.Handle("/static/*", fs)
	}

	corsHandler := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})

	api.handler = corsHandler.Handler(r.chi)
	return api
}

func (a *API) limitHandler(lmt *limiter.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if httpErr := tollbooth.LimitByRequest(lmt, w, r); httpErr != nil {
				err := tooManyRequestsError(ErrorCodeOverRequestRateLimit, "Rate limit exceeded")
				HandleResponseError(err, w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// HealthCheck indicates whether the harness is up. The body is fixed so
// probes never depend on configuration state.
func (a *API) HealthCheck(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write([]byte("ok"))
	return err
}

// Landing serves the static landing page when one exists in the assets
// directory, and an inline fallback with links otherwise.
func (a *API) Landing(w http.ResponseWriter, r *http.Request) error {
	if dir := a.config.API.StaticDir; dir != "" {
		index := filepath.Join(dir, "index.html")
		if _, err := os.Stat(index); err == nil {
			http.ServeFile(w, r, index)
			return nil
		}
	}
	return sendHTML(w, http.StatusOK, landingTemplate, map[string]interface{}{
		"Version": a.version,
	})
}
