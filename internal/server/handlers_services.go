package server

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/slipway/slipway/internal/api"
	"github.com/slipway/slipway/internal/blueprint"
)

// handleListServices handles GET /api/v1/services to list registered services.
func (r *Router) handleListServices(w http.ResponseWriter, req *http.Request) {
	entries, err := r.registry.List()
	if err != nil {
		r.handleAndLogError(w, req, err, "list services")
		return
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(toServiceResponses(entries))
}

// handleRegisterServices handles POST /api/v1/services/register to track the
// services declared by a blueprint in a local working copy.
//
// Blueprints with error findings are rejected with 422 and the findings in
// the body; warning-only blueprints register fine and carry their warnings
// back in the response.
func (r *Router) handleRegisterServices(w http.ResponseWriter, req *http.Request) {
	logger := r.GetLoggerFromContext(req.Context())

	var regReq api.RegisterServiceRequest
	if err := decodeRequestBody(w, req, &regReq); err != nil {
		return
	}

	path := strings.TrimSpace(regReq.Path)
	if path == "" {
		writeErrorResponse(w, http.StatusBadRequest, "invalid path", "path is required")
		return
	}
	if !filepath.IsAbs(path) {
		// The daemon resolves blueprints against its own working
		// directory, not the client's.
		writeErrorResponse(w, http.StatusBadRequest, "invalid path", "path must be absolute")
		return
	}

	blueprintPath := regReq.BlueprintPath
	var fullPath string
	if blueprintPath == "" {
		discovered, err := blueprint.Discover(path)
		if err != nil {
			writeErrorResponse(w, http.StatusNotFound, "no blueprint found", err.Error())
			return
		}
		fullPath = discovered
		blueprintPath, _ = filepath.Rel(path, discovered)
	} else {
		fullPath = filepath.Join(path, blueprintPath)
	}

	bp, err := blueprint.ParseFile(fullPath)
	if err != nil {
		logger.Debug("blueprint failed to parse", "path", fullPath, "error", err)
		writeJSON(w, http.StatusUnprocessableEntity, api.RegisterServicesResponse{
			Findings: []api.ValidationFinding{{
				Severity: string(blueprint.SeverityError),
				Code:     blueprint.CodeParseError,
				Message:  err.Error(),
			}},
		})
		return
	}

	findings := bp.Validate()
	if findings.HasErrors() {
		logger.Debug("blueprint failed validation", "path", fullPath, "errors", len(findings.Errors()))
		writeJSON(w, http.StatusUnprocessableEntity, api.RegisterServicesResponse{
			Findings: toAPIFindings(findings),
		})
		return
	}

	entries, err := r.registry.Sync(bp, path, blueprintPath)
	if err != nil {
		r.handleAndLogError(w, req, err, "register services")
		return
	}

	logger.Info("services registered", "registration", map[string]any{
		"blueprint": fullPath,
		"services":  len(entries),
		"warnings":  len(findings.Warnings()),
	})

	writeJSON(w, http.StatusCreated, api.RegisterServicesResponse{
		Services: toServiceResponses(entries),
		Findings: toAPIFindings(findings),
	})
}
