package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zapdesk/signup-harness/internal/conf"
)

const testAccessToken = "EAAGlonglivedtokenwithplentyofentropy0123456789"

// mockGraph stands in for the Graph API during callback tests.
type mockGraph struct {
	server *httptest.Server

	exchangeStatus int
	exchangeBody   string
	isValid        bool
	appID          string
	scopes         []string

	businessesCalled bool
	identityCalled   bool
}

func newMockGraph(t *testing.T) *mockGraph {
	m := &mockGraph{
		exchangeStatus: http.StatusOK,
		isValid:        true,
		appID:          "123456789",
		scopes:         []string{"whatsapp_business_management", scopeBusinessManagement},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v20.0/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(m.exchangeStatus)
		if m.exchangeBody != "" {
			fmt.Fprint(w, m.exchangeBody)
			return
		}
		fmt.Fprintf(w, `{"access_token":%q,"token_type":"bearer","expires_in":5183944}`, testAccessToken)
	})
	mux.HandleFunc("/debug_token", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, testAccessToken, r.URL.Query().Get("input_token"))
		require.Equal(t, "123456789|testsecret", r.URL.Query().Get("access_token"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"data":{"is_valid":%v,"app_id":%q,"expires_at":1924992000,"scopes":[%s]}}`,
			m.isValid, m.appID, `"`+strings.Join(m.scopes, `","`)+`"`)
	})
	mux.HandleFunc("/v20.0/me", func(w http.ResponseWriter, r *http.Request) {
		m.identityCalled = true
		require.Equal(t, "Bearer "+testAccessToken, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"10203040","name":"Maria Silva"}`)
	})
	mux.HandleFunc("/v20.0/me/businesses", func(w http.ResponseWriter, r *http.Request) {
		m.businessesCalled = true
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"id":"987","name":"Acme LTDA","owned_whatsapp_business_accounts":{"data":[{"id":"111","name":"Acme WABA","phone_numbers":{"data":[{"id":"222","display_phone_number":"+55 11 99999-9999","verified_name":"Acme"}]}}]}}]}`)
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func setupCallbackTest(t *testing.T, m *mockGraph) *API {
	return setupAPIForTest(apiTestPublicURL, func(config *conf.GlobalConfiguration) {
		config.Meta.URL = m.server.URL
	})
}

func doCallback(a *API, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	return w
}

func TestCallbackProviderError(t *testing.T) {
	a := setupAPIForTest(apiTestPublicURL, nil)

	w := doCallback(a, "http://localhost"+callbackPath+"?error=access_denied&error_reason=user_denied&error_description=Permissions+error")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "access_denied")
	require.Contains(t, w.Body.String(), "user_denied")
	require.Contains(t, w.Body.String(), "Permissions error")
}

func TestCallbackMissingCode(t *testing.T) {
	a := setupAPIForTest(apiTestPublicURL, nil)

	w := doCallback(a, "http://localhost"+callbackPath)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "código de autorização")
}

func TestCallbackWithoutPublicURL(t *testing.T) {
	a := setupAPIForTest("", nil)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=abc")

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCallbackProviderErrorWithoutPublicURL(t *testing.T) {
	// the provider's refusal is rendered even when no public URL exists
	a := setupAPIForTest("", nil)

	w := doCallback(a, "http://localhost"+callbackPath+"?error=access_denied&error_reason=user_denied")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "access_denied")
}

func TestCallbackExchangeFailure(t *testing.T) {
	m := newMockGraph(t)
	m.exchangeStatus = http.StatusBadRequest
	m.exchangeBody = `{"error":{"message":"Invalid verification code format.","type":"OAuthException","code":100}}`
	a := setupCallbackTest(t, m)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=badcode")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Invalid verification code format.")
}

func TestCallbackExchangeWithoutToken(t *testing.T) {
	m := newMockGraph(t)
	m.exchangeBody = `{"token_type":"bearer","hint":"no access_token here"}`
	a := setupCallbackTest(t, m)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=goodcode")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "no access_token here")
}

func TestCallbackSuccess(t *testing.T) {
	m := newMockGraph(t)
	a := setupCallbackTest(t, m)

	state, err := encodeState("acme", FlowModeEmbeddedSignup)
	require.NoError(t, err)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=goodcode&state="+state)

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	require.Contains(t, body, "Autenticação válida")
	require.Contains(t, body, "acme")
	require.Contains(t, body, "Maria Silva")
	require.True(t, m.identityCalled)
	require.True(t, m.businessesCalled)
	require.Contains(t, body, "Acme WABA")

	// only a bounded prefix of the token may be rendered
	require.NotContains(t, body, testAccessToken)
	require.Contains(t, body, tokenPreview(testAccessToken))
}

func TestCallbackBusinessFetchSkippedWithoutScope(t *testing.T) {
	m := newMockGraph(t)
	m.scopes = []string{"public_profile"}
	a := setupCallbackTest(t, m)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=goodcode")

	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, m.businessesCalled)
	require.Contains(t, w.Body.String(), businessesSkipped)
}

func TestCallbackInvalidToken(t *testing.T) {
	m := newMockGraph(t)
	m.isValid = false
	a := setupCallbackTest(t, m)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=goodcode")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Autenticação inválida")
}

func TestCallbackAppIDMismatch(t *testing.T) {
	m := newMockGraph(t)
	m.appID = "999999999"
	a := setupCallbackTest(t, m)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=goodcode")

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "Autenticação inválida")
}

func TestCallbackMalformedStateStillSucceeds(t *testing.T) {
	m := newMockGraph(t)
	a := setupCallbackTest(t, m)

	w := doCallback(a, "http://localhost"+callbackPath+"?code=goodcode&state=!!!broken!!!")

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), UnknownTenant)
}
