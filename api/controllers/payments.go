package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/angelmondragon/vitalflex-backend/api/middleware"
	"github.com/angelmondragon/vitalflex-backend/api/responses"
	"github.com/angelmondragon/vitalflex-backend/api/validators"
	paysvc "github.com/angelmondragon/vitalflex-backend/internal/payments"
	"github.com/angelmondragon/vitalflex-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
)

type processPaymentRequest struct {
	Plan    string          `json:"plan" validate:"required"`
	Method  string          `json:"method" validate:"required"`
	Details json.RawMessage `json:"details" validate:"required"`
}

// ProcessPayment runs a payment attempt for the authenticated user.
func ProcessPayment(svc paysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		var payload processPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := enums.ParsePlan(payload.Plan)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown plan"))
			return
		}
		method, err := enums.ParsePaymentMethod(payload.Method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method"))
			return
		}
		details, err := paysvc.ParseMethodDetails(method, payload.Details)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Process(r.Context(), paysvc.ProcessRequest{
			UserID:    identity.UserID,
			UserEmail: identity.Email,
			Plan:      plan,
			Method:    method,
			Details:   details,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
