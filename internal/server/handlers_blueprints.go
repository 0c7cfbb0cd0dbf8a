package server

import (
	"net/http"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/blueprint"
)

// handleValidateBlueprint handles POST /api/v1/blueprints/validate to check a
// blueprint document without registering or deploying anything.
//
// A well-formed request always yields 200; the verdict lives in the body.
// Parse failures are reported as a single error finding so clients render
// them the same way as validation findings.
func (r *Router) handleValidateBlueprint(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())

	var validateReq api.ValidateRequest
	if err := decodeRequestBody(w, req, &validateReq); err != nil {
		return
	}

	bp, err := blueprint.Parse([]byte(validateReq.Blueprint))
	if err != nil {
		logger.Debug("blueprint failed to parse", "error", err)
		writeJSON(w, http.StatusOK, api.ValidateResponse{
			Valid: false,
			Findings: []api.ValidationFinding{{
				Severity: string(blueprint.SeverityError),
				Code:     blueprint.CodeParseError,
				Message:  err.Error(),
			}},
		})
		return
	}

	findings := bp.Validate()
	writeJSON(w, http.StatusOK, api.ValidateResponse{
		Valid:    !findings.HasErrors(),
		Services: bp.ServiceNames(),
		Findings: toAPIFindings(findings),
	})
}
