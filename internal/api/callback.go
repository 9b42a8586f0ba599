package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/zapdesk/signup-harness/internal/api/provider"
	"github.com/zapdesk/signup-harness/internal/observability"
)

const scopeBusinessManagement = "business_management"

// businessesSkipped marks a business-account fetch that was never attempted
// because the scope was not granted.
const businessesSkipped = "não consultado (escopo business_management ausente)"

type callbackReport struct {
	Mode          string
	TenantID      string
	StateFallback string

	TokenPreview string
	TokenType    string
	TokenValid   bool
	AppIDMatches bool
	ExpiresAt    string
	Scopes       string
	DebugError   string

	Identity      *provider.Identity
	IdentityError string

	Businesses string

	OverallOK bool
}

// Callback is the OAuth redirect target. It runs the linear diagnostic
// pipeline: exchange the code, introspect the token, fetch identity, fetch
// business accounts when permitted, and render everything as one report.
func (a *API) Callback(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	log := observability.GetLogEntry(r)

	query := r.URL.Query()
	if errCode := query.Get("error"); errCode != "" {
		return sendHTML(w, http.StatusBadRequest, callbackErrorTemplate, map[string]interface{}{
			"Guidance":    "O provedor recusou a autorização. Revise as permissões do app e tente novamente.",
			"Error":       errCode,
			"Reason":      query.Get("error_reason"),
			"Description": query.Get("error_description"),
		})
	}

	code := query.Get("code")
	if code == "" {
		return sendHTML(w, http.StatusBadRequest, callbackErrorTemplate, map[string]interface{}{
			"Guidance": "O provedor não retornou um código de autorização.",
		})
	}

	// Rendering the provider's own refusal above needs no public URL; only
	// the exchange does, since the redirect URI must match the dialog's.
	if a.publicURL == "" {
		return httpError(http.StatusInternalServerError, ErrorCodeNoPublicURL,
			"No public URL is configured; the callback cannot complete the token exchange")
	}

	state := decodeState(query.Get("state"))
	observability.LogEntrySetField(r, "tenant_id", state.TenantID)
	if state.FallbackReason != "" {
		log.WithField("reason", state.FallbackReason).Info("state parameter defaulted")
	}

	token, rawPayload, err := a.provider.ExchangeCode(ctx, code)
	if err != nil {
		log.WithError(err).Info("token exchange failed")
		return sendHTML(w, http.StatusBadRequest, callbackErrorTemplate, map[string]interface{}{
			"Guidance":   "A troca do código de autorização por um token falhou.",
			"RawPayload": rawErrorPayload(rawPayload, err),
		})
	}

	report := &callbackReport{
		Mode:          state.Mode,
		TenantID:      state.TenantID,
		StateFallback: state.FallbackReason,
		TokenPreview:  tokenPreview(token.AccessToken),
		TokenType:     token.TokenType,
		ExpiresAt:     "desconhecido",
		Businesses:    businessesSkipped,
	}

	debug, err := a.provider.DebugToken(ctx, token.AccessToken)
	if err != nil {
		log.WithError(err).Info("token introspection failed")
		report.DebugError = err.Error()
	} else {
		report.TokenValid = debug.IsValid
		report.AppIDMatches = debug.AppIDMatches
		report.Scopes = strings.Join(debug.Scopes, ", ")
		if !debug.ExpiresAt.IsZero() {
			report.ExpiresAt = debug.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}

	identity, identityErr := a.provider.GetIdentity(ctx, token)
	if identityErr != nil {
		log.WithError(identityErr).Info("identity fetch failed")
		report.IdentityError = identityErr.Error()
	} else {
		report.Identity = identity
	}

	// the business fetch is skipped outright without the scope; attempting
	// it would only produce permission-denied noise
	if debug != nil && debug.HasScope(scopeBusinessManagement) {
		businesses, bizErr := a.provider.GetBusinesses(ctx, token)
		if bizErr != nil {
			log.WithError(bizErr).Info("business account fetch failed")
			report.Businesses = bizErr.Error()
		} else {
			report.Businesses = prettyJSON(businesses)
		}
	}

	report.OverallOK = debug != nil && debug.IsValid && debug.AppIDMatches && identityErr == nil

	status := http.StatusBadRequest
	if report.OverallOK {
		status = http.StatusOK
	}
	return sendHTML(w, status, callbackReportTemplate, report)
}

func rawErrorPayload(payload []byte, err error) string {
	if len(payload) > 0 {
		return string(payload)
	}
	return err.Error()
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}
