package models

// ErrorResponse defines API error response format
type ErrorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// OperationResponse is returned by every command-style API
type OperationResponse struct {
	Operation string `json:"operation"`
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
}

// OutputResponse carries a page of the daemon output stream
type OutputResponse struct {
	Lines []string `json:"lines"`
	Next  int      `json:"next"`
}

// SettingsRequest sets one workspace setting through the daemon
type SettingsRequest struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value"`
	Scope string `json:"scope"`
}

// PushRequest asks the daemon to push its metrics, empty Addr uses the configured pushgateway
type PushRequest struct {
	Addr string `json:"addr"`
}
