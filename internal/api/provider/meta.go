// Package provider implements the outbound Meta Graph API surface used by
// the signup harness: the OAuth dialog and token endpoints, token
// introspection, identity and business-account reads, and the WhatsApp Cloud
// API message endpoint.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/zapdesk/signup-harness/internal/conf"
)

const (
	defaultAuthBase = "www.facebook.com"
	defaultAPIBase  = "graph.facebook.com"
)

var defaultTimeout time.Duration = time.Second * 10

// Meta talks to the Graph API on behalf of one configured Meta app.
type Meta struct {
	*oauth2.Config
	APIVersion string
	APIURL     string

	// HTTP is the client used for every non-oauth2 call. Tests replace it.
	HTTP *http.Client
}

// TokenDebug is the token introspection result from /debug_token.
type TokenDebug struct {
	IsValid      bool
	AppID        string
	AppIDMatches bool
	ExpiresAt    time.Time // zero when the provider reports no expiry
	Scopes       []string
}

// HasScope reports whether the introspected token was granted the scope.
func (d *TokenDebug) HasScope(scope string) bool {
	for _, s := range d.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Identity is the /me projection rendered in the diagnostic report.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NewMetaProvider creates a Graph API provider for the configured app. The
// redirect URL may be empty when no public base URL was resolved; routes that
// need it refuse to run before it is used.
func NewMetaProvider(ext conf.MetaConfiguration, redirectURL string) *Meta {
	authHost := chooseHost(ext.URL, defaultAuthBase)
	apiHost := chooseHost(ext.URL, defaultAPIBase)

	return &Meta{
		Config: &oauth2.Config{
			ClientID:     ext.ClientID,
			ClientSecret: ext.ClientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  authHost + "/" + ext.APIVersion + "/dialog/oauth",
				TokenURL: apiHost + "/" + ext.APIVersion + "/oauth/access_token",
			},
		},
		APIVersion: ext.APIVersion,
		APIURL:     apiHost,
		HTTP:       &http.Client{Timeout: defaultTimeout},
	}
}

// appToken is the app-level credential accepted by /debug_token.
func (p *Meta) appToken() string {
	return p.Config.ClientID + "|" + p.Config.ClientSecret
}

// ExchangeCode swaps the authorization code for an access token. The exchange
// is performed directly against the token endpoint so the raw response body
// can be returned alongside the error whenever the endpoint answers with an
// error payload, or with a 2xx payload that carries no token. Callers surface
// that payload verbatim.
func (p *Meta) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, []byte, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.Config.ClientID)
	form.Set("client_secret", p.Config.ClientSecret)
	form.Set("redirect_uri", p.Config.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := p.HTTP.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return nil, body, httpError(res.StatusCode, "token endpoint returned status %d", res.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, body, httpError(http.StatusBadRequest, "token endpoint returned a non-JSON payload")
	}
	if payload.AccessToken == "" {
		return nil, body, httpError(http.StatusBadRequest, "token endpoint returned no access token")
	}

	tok := &oauth2.Token{AccessToken: payload.AccessToken, TokenType: payload.TokenType}
	if payload.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(payload.ExpiresIn) * time.Second)
	}
	return tok, nil, nil
}

// DebugToken introspects an access token using the app credential.
func (p *Meta) DebugToken(ctx context.Context, inputToken string) (*TokenDebug, error) {
	q := url.Values{}
	q.Set("input_token", inputToken)
	q.Set("access_token", p.appToken())

	var raw struct {
		Data struct {
			IsValid   bool     `json:"is_valid"`
			AppID     string   `json:"app_id"`
			ExpiresAt int64    `json:"expires_at"`
			Scopes    []string `json:"scopes"`
		} `json:"data"`
	}
	if err := p.makeAppRequest(ctx, p.APIURL+"/debug_token?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	debug := &TokenDebug{
		IsValid:      raw.Data.IsValid,
		AppID:        raw.Data.AppID,
		AppIDMatches: raw.Data.AppID == p.Config.ClientID,
		Scopes:       raw.Data.Scopes,
	}
	if raw.Data.ExpiresAt > 0 {
		debug.ExpiresAt = time.Unix(raw.Data.ExpiresAt, 0)
	}
	return debug, nil
}

// GetIdentity fetches the token owner's identity.
func (p *Meta) GetIdentity(ctx context.Context, tok *oauth2.Token) (*Identity, error) {
	var u Identity
	if err := p.makeRequest(ctx, tok, p.APIURL+"/"+p.APIVersion+"/me?fields=id,name", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetBusinesses fetches the businesses reachable with the token, including
// nested WhatsApp business accounts and their phone numbers. The payload is
// returned raw since the report renders it verbatim.
func (p *Meta) GetBusinesses(ctx context.Context, tok *oauth2.Token) (json.RawMessage, error) {
	fields := "id,name,owned_whatsapp_business_accounts{id,name,phone_numbers{id,display_phone_number,verified_name}}"
	u := p.APIURL + "/" + p.APIVersion + "/me/businesses?fields=" + url.QueryEscape(fields)

	var raw json.RawMessage
	if err := p.makeRequest(ctx, tok, u, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SendText relays one outbound text message through the Cloud API messages
// endpoint. The raw response body is always returned when the endpoint was
// reached; ok reports the provider's own success indicator.
func (p *Meta) SendText(ctx context.Context, phoneNumberID, to, text, accessToken string) (body []byte, ok bool, err error) {
	payload, err := json.Marshal(map[string]interface{}{
		"messaging_product": "whatsapp",
		"to":                to,
		"type":              "text",
		"text":              map[string]string{"body": text},
	})
	if err != nil {
		return nil, false, err
	}

	u := p.APIURL + "/" + p.APIVersion + "/" + phoneNumberID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	res, err := p.HTTP.Do(req)
	if err != nil {
		return nil, false, err
	}
	defer res.Body.Close()

	body, err = io.ReadAll(res.Body)
	if err != nil {
		return nil, false, err
	}

	// The Cloud API signals failure through its error envelope; the HTTP
	// status alone is not trusted.
	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	ok = res.StatusCode >= http.StatusOK && res.StatusCode < http.StatusMultipleChoices
	if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error != nil {
		ok = false
	}
	return body, ok, nil
}

func chooseHost(base, defaultHost string) string {
	if base == "" {
		return "https://" + defaultHost
	}

	baseLen := len(base)
	if base[baseLen-1] == '/' {
		return base[:baseLen-1]
	}

	return base
}

// makeRequest performs a bearer-authenticated GET with the user token.
func (p *Meta) makeRequest(ctx context.Context, tok *oauth2.Token, url string, dst interface{}) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.HTTP)
	client := p.Config.Client(ctx, tok)
	client.Timeout = defaultTimeout
	res, err := client.Get(url)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return decodeResponse(res, dst)
}

// makeAppRequest performs a GET authenticated through query parameters only.
func (p *Meta) makeAppRequest(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	res, err := p.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	return decodeResponse(res, dst)
}

func decodeResponse(res *http.Response, dst interface{}) error {
	bodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return httpError(res.StatusCode, string(bodyBytes))
	}

	return json.Unmarshal(bodyBytes, dst)
}
