package api

import (
	"net/http"

	"github.com/zapdesk/signup-harness/internal/observability"
)

const defaultTestMessage = "Olá! Esta é uma mensagem de teste do signup harness."

// SendTextParams are the parameters for the message relay endpoint.
type SendTextParams struct {
	PhoneNumberID string `json:"phone_number_id"`
	To            string `json:"to"`
	Text          string `json:"text"`
	Token         string `json:"token"`
}

// SendText relays one outbound text message through the Cloud API and echoes
// the provider's raw response. No retries, no delivery tracking.
func (a *API) SendText(w http.ResponseWriter, r *http.Request) error {
	params := &SendTextParams{}
	if err := retrieveRequestParams(r, params); err != nil {
		return err
	}

	if params.PhoneNumberID == "" {
		return badRequestError(ErrorCodeValidationFailed, "phone_number_id is required")
	}
	if params.To == "" {
		return badRequestError(ErrorCodeValidationFailed, "to is required")
	}
	if params.Token == "" {
		return badRequestError(ErrorCodeValidationFailed, "token is required")
	}
	if params.Text == "" {
		params.Text = defaultTestMessage
	}

	body, ok, err := a.provider.SendText(r.Context(), params.PhoneNumberID, params.To, params.Text, params.Token)
	if err != nil {
		return internalServerError("Error relaying message to the Cloud API").WithInternalError(err)
	}

	log := observability.GetLogEntry(r)
	log.WithField("phone_number_id", params.PhoneNumberID).WithField("ok", ok).Info("message relay completed")

	status := http.StatusBadRequest
	if ok {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(body)
	return err
}

// TrySendForm serves the HTML test form, prefilled with the optional default
// test credentials.
func (a *API) TrySendForm(w http.ResponseWriter, r *http.Request) error {
	return sendHTML(w, http.StatusOK, trySendTemplate, map[string]interface{}{
		"PhoneNumberID": a.config.Test.PhoneNumberID,
		"AccessToken":   a.config.Test.AccessToken,
	})
}
