package api

import (
	"encoding/base64"
	"encoding/json"

	"github.com/zapdesk/signup-harness/internal/crypto"
)

// Flow modes carried in the state parameter.
const (
	FlowModeEmbeddedSignup = "es"
	FlowModePlainLogin     = "login"
)

// UnknownTenant is the sentinel used when the state parameter carries no
// usable tenant identifier.
const UnknownTenant = "unknown"

// OAuthState is the context object round-tripped through the provider's
// state parameter. It is opaque and URL-safe but deliberately not signed;
// the nonce is generated per redirect and only asserts round-trip opacity,
// not forgery protection.
type OAuthState struct {
	TenantID string `json:"tenant_id"`
	Nonce    string `json:"nonce"`
	Mode     string `json:"mode"`
}

// DecodedState is the result of decoding a state parameter. When the input
// could not be decoded, FallbackReason is set and the defaulted values are
// returned instead; decoding never fails the request.
type DecodedState struct {
	TenantID       string
	Mode           string
	FallbackReason string
}

func encodeState(tenantID, mode string) (string, error) {
	state := OAuthState{
		TenantID: tenantID,
		Nonce:    crypto.SecureToken(),
		Mode:     mode,
	}
	b, err := json.Marshal(state)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func decodeState(raw string) DecodedState {
	fallback := DecodedState{
		TenantID: UnknownTenant,
		Mode:     FlowModeEmbeddedSignup,
	}

	if raw == "" {
		fallback.FallbackReason = "state parameter missing"
		return fallback
	}

	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		fallback.FallbackReason = "state parameter is not valid base64url"
		return fallback
	}

	var state OAuthState
	if err := json.Unmarshal(b, &state); err != nil {
		fallback.FallbackReason = "state parameter is not valid JSON"
		return fallback
	}

	decoded := DecodedState{TenantID: state.TenantID, Mode: state.Mode}
	if decoded.TenantID == "" {
		decoded.TenantID = UnknownTenant
	}
	if decoded.Mode != FlowModeEmbeddedSignup && decoded.Mode != FlowModePlainLogin {
		decoded.Mode = FlowModeEmbeddedSignup
	}
	return decoded
}
