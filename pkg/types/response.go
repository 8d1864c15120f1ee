// Package types holds the wire envelopes shared by every HTTP handler.
// Success payloads nest under "data", failures under "error", so clients
// and the invoice poller can branch on a single top-level key.
package types

// SuccessEnvelope wraps a successful response body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error shape. Code is stable and machine
// readable; Details carries field-level context only when the error code
// allows exposing it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps a failed response body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
