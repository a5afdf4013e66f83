package handlers

import (
	"errors"
	"net/http"

	"github.com/iago/outreach-leadgen/internal/policy"
	"github.com/iago/outreach-leadgen/internal/service"
)

func (api *API) DraftICP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}

	var request service.DraftRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON payload")
		return
	}

	result, err := api.draftService.DraftICP(r.Context(), request)
	if err != nil {
		var violation *policy.PolicyViolationError
		switch {
		case errors.As(err, &violation):
			message := "request blocked by policy"
			if len(violation.Violations) > 0 {
				message = violation.Violations[0].Message
			}
			writeError(w, r, http.StatusUnprocessableEntity, "policy_violation", message)
		case errors.Is(err, service.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		default:
			api.logf("draft icp failed err=%v", err)
			writeError(w, r, http.StatusInternalServerError, "internal_error", "failed to draft icp")
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}
