package api

// ValidateRequest carries a raw blueprint document for validation.
type ValidateRequest struct {
	Blueprint string `json:"blueprint"`
}

// ValidationFinding is one problem or observation from blueprint
// validation.
type ValidationFinding struct {
	Severity string `json:"severity"`
	Field    string `json:"field,omitempty"`
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
}

// ValidateResponse reports the outcome of validating a blueprint.
// Valid is false when the document failed to parse or any finding has
// error severity; warnings alone leave it true.
type ValidateResponse struct {
	Valid    bool                `json:"valid"`
	Services []string            `json:"services,omitempty"`
	Findings []ValidationFinding `json:"findings,omitempty"`
}
