package dto

type AuthResponse struct {
	Token   string `json:"token"`
	Profile any    `json:"profile"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type ProofResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}
