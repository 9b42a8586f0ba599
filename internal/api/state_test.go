package api

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateRoundTrip(t *testing.T) {
	cases := []struct {
		desc     string
		tenantID string
		mode     string
	}{
		{desc: "embedded signup", tenantID: "acme", mode: FlowModeEmbeddedSignup},
		{desc: "plain login", tenantID: "tenant-42", mode: FlowModePlainLogin},
		{desc: "empty tenant", tenantID: "", mode: FlowModeEmbeddedSignup},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			encoded, err := encodeState(c.tenantID, c.mode)
			require.NoError(t, err)

			decoded := decodeState(encoded)
			require.Equal(t, c.mode, decoded.Mode)
			require.Empty(t, decoded.FallbackReason)
			if c.tenantID == "" {
				require.Equal(t, UnknownTenant, decoded.TenantID)
			} else {
				require.Equal(t, c.tenantID, decoded.TenantID)
			}
		})
	}
}

func TestStateNonceIsFresh(t *testing.T) {
	first, err := encodeState("acme", FlowModeEmbeddedSignup)
	require.NoError(t, err)
	second, err := encodeState("acme", FlowModeEmbeddedSignup)
	require.NoError(t, err)

	// same inputs decode identically but the anti-forgery segment differs
	require.NotEqual(t, first, second)

	var a, b OAuthState
	rawFirst, err := base64.RawURLEncoding.DecodeString(first)
	require.NoError(t, err)
	rawSecond, err := base64.RawURLEncoding.DecodeString(second)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(rawFirst, &a))
	require.NoError(t, json.Unmarshal(rawSecond, &b))

	require.NotEqual(t, a.Nonce, b.Nonce)
	require.GreaterOrEqual(t, len(a.Nonce), 11) // at least 8 bytes of randomness, base64url
	require.Equal(t, a.TenantID, b.TenantID)
	require.Equal(t, a.Mode, b.Mode)
}

func TestStateDecodeMalformed(t *testing.T) {
	cases := []struct {
		desc  string
		input string
	}{
		{desc: "empty", input: ""},
		{desc: "not base64", input: "%%%not-base64%%%"},
		{desc: "base64 of garbage", input: base64.RawURLEncoding.EncodeToString([]byte("not json at all"))},
		{desc: "base64 of wrong json type", input: base64.RawURLEncoding.EncodeToString([]byte(`["array"]`))},
	}

	for _, c := range cases {
		t.Run(c.desc, func(t *testing.T) {
			decoded := decodeState(c.input)
			require.Equal(t, FlowModeEmbeddedSignup, decoded.Mode)
			require.Equal(t, UnknownTenant, decoded.TenantID)
			require.NotEmpty(t, decoded.FallbackReason)
		})
	}
}

func TestStateDecodeUnknownMode(t *testing.T) {
	raw, err := json.Marshal(OAuthState{TenantID: "acme", Nonce: "n", Mode: "weird"})
	require.NoError(t, err)

	decoded := decodeState(base64.RawURLEncoding.EncodeToString(raw))
	require.Equal(t, FlowModeEmbeddedSignup, decoded.Mode)
	require.Equal(t, "acme", decoded.TenantID)
}

func TestTokenPreviewIsBounded(t *testing.T) {
	long := "EAAG0123456789abcdefghijklmnopqrstuvwxyz"
	preview := tokenPreview(long)
	require.NotContains(t, preview, long)
	require.LessOrEqual(t, len(preview), 15)

	require.Equal(t, "", tokenPreview(""))
}
