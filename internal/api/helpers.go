package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"
	"github.com/pkg/errors"
	"github.com/zapdesk/signup-harness/internal/conf"
	"github.com/zapdesk/signup-harness/internal/utilities"
)

func addRequestID(globalConfig *conf.GlobalConfiguration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if globalConfig.API.RequestIDHeader != "" {
				id = r.Header.Get(globalConfig.API.RequestIDHeader)
			}
			if id == "" {
				uid := uuid.Must(uuid.NewV4())
				id = uid.String()
			}

			ctx := utilities.WithRequestID(r.Context(), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sendJSON(w http.ResponseWriter, status int, obj interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(obj)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("Error encoding json response: %v", obj))
	}
	w.WriteHeader(status)
	_, err = w.Write(b)
	return err
}

func retrieveRequestParams(r *http.Request, params interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return badRequestError(ErrorCodeValidationFailed, "Empty request body")
	}
	if err := json.NewDecoder(r.Body).Decode(params); err != nil {
		return badRequestError(ErrorCodeValidationFailed, "Could not parse request body as JSON: %v", err)
	}
	return nil
}

// tokenPreview returns a bounded-length prefix of an access token. Whole
// tokens must never reach a page or a log line.
func tokenPreview(token string) string {
	const max = 12
	if token == "" {
		return ""
	}
	if len(token) <= max {
		return token[:len(token)/2] + "..."
	}
	return token[:max] + "..."
}
