package banshee

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound matches APIErrors with status 404.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned before any request when an entity id is not positive.
	ErrInvalidID = errors.New("invalid id")
)

// APIError is an error response of the banshee API. Msg is the server
// message and is meant to be shown to the user verbatim.
type APIError struct {
	Code     int    `json:"code"`
	Msg      string `json:"msg"`
	Endpoint string `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%d]: %s", e.Code, e.Msg)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

// Message returns the message to show for err: the server message for API
// errors and err.Error() otherwise.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Msg
	}
	return err.Error()
}

func newAPIError(endpoint string, status int, body []byte) *APIError {
	apiErr := &APIError{}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Msg == "" {
		apiErr.Msg = http.StatusText(status)
	}
	apiErr.Code = status
	apiErr.Endpoint = endpoint
	return apiErr
}

func checkID(what string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrInvalidID)
	}
	return nil
}
