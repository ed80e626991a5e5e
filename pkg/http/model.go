package http

import "encoding/json"

// APIResponse represents standard API response.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// rawAPIResponse defers decoding of Data until the status is known.
type rawAPIResponse struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"target_rate"`
	Message string                 `json:"message,omitempty" example:"TargetRate is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
