package types

// SuccessEnvelope wraps every successful payload. Flash carries the one-shot
// message a browser would have been shown after a redirect.
type SuccessEnvelope struct {
	Data  any    `json:"data"`
	Flash string `json:"flash,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
