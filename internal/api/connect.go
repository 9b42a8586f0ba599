package api

import (
	"net/http"

	"github.com/zapdesk/signup-harness/internal/observability"
	"golang.org/x/oauth2"
)

// Connect redirects the browser to the Meta authorization dialog. The mode
// query parameter selects between the embedded signup flow (default) and a
// plain login flow without a signup configuration.
func (a *API) Connect(w http.ResponseWriter, r *http.Request) error {
	if a.publicURL == "" {
		return httpError(http.StatusInternalServerError, ErrorCodeNoPublicURL,
			"No public URL is configured; set SIGNUP_API_PUBLIC_URL or enable the tunnel")
	}

	query := r.URL.Query()
	mode := query.Get("mode")
	if mode != FlowModePlainLogin {
		mode = FlowModeEmbeddedSignup
	}
	tenantID := query.Get("tenantId")

	if mode == FlowModeEmbeddedSignup && a.config.Meta.SignupConfigID == "" {
		return badRequestError(ErrorCodeValidationFailed, "Embedded signup requires a configured signup configuration id (SIGNUP_META_SIGNUP_CONFIG_ID)")
	}

	state, err := encodeState(tenantID, mode)
	if err != nil {
		return internalServerError("Error creating state").WithInternalError(err)
	}

	authURLParams := []oauth2.AuthCodeOption{}
	if mode == FlowModeEmbeddedSignup {
		authURLParams = append(authURLParams, oauth2.SetAuthURLParam("config_id", a.config.Meta.SignupConfigID))
	}

	authURL := a.provider.AuthCodeURL(state, authURLParams...)

	log := observability.GetLogEntry(r)
	log.WithField("mode", mode).Infof("Redirecting to authorization dialog: %s", authURL)

	http.Redirect(w, r, authURL, http.StatusFound)
	return nil
}
