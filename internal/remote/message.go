package remote

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
)

// MaxMessageBytes bounds a single WebSocket message in either direction.
const MaxMessageBytes = 16 << 20

// Error codes carried in Error.Code.
const (
	CodeInvalidRequest = -32600
	CodeFormatFailed   = -32000
)

// Request asks the server to format one document.
type Request struct {
	ID      int64               `json:"id"`
	HTML    string              `json:"html"`
	Path    string              `json:"path,omitempty"`
	Options *htmlformat.Options `json:"options,omitempty"`
}

// Response answers the Request with the same ID.
type Response struct {
	ID      int64  `json:"id"`
	HTML    string `json:"html,omitempty"`
	Changed bool   `json:"changed,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// Error represents a failed request.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("remote error %d: %s", e.Code, e.Message)
}

// Result is the formatted output of a successful request.
type Result struct {
	HTML    string
	Changed bool
}

// ParseRequest decodes a request message. A message without an ID is
// rejected because its response could not be matched.
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	if req.ID == 0 {
		return nil, errors.New("request has no id")
	}
	return &req, nil
}

// parseResponse decodes a response message.
func parseResponse(data []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if resp.ID == 0 && resp.Error == nil {
		return nil, fmt.Errorf("unknown message format: %s", string(data))
	}
	return &resp, nil
}
