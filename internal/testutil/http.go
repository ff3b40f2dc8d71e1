package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
)

// NewJSONRequest creates a new HTTP test request with a JSON body
func NewJSONRequest(method, url string, body interface{}) *http.Request {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

// DecodeJSON decodes JSON from a reader
func DecodeJSON(r io.Reader, v interface{}) error {
	return json.NewDecoder(r).Decode(v)
}

// ErrorResponse mirrors the JSON error body written by the server
type ErrorResponse struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details,omitempty"`
		Output  string `json:"output,omitempty"`
	} `json:"error"`
}

// ParseErrorResponse parses an error body from a recorded response
func ParseErrorResponse(rec *httptest.ResponseRecorder) (*ErrorResponse, error) {
	var errResp ErrorResponse
	if err := DecodeJSON(rec.Body, &errResp); err != nil {
		return nil, err
	}
	return &errResp, nil
}
