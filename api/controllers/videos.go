package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vitalflex-backend/api/middleware"
	"github.com/angelmondragon/vitalflex-backend/api/responses"
	videosvc "github.com/angelmondragon/vitalflex-backend/internal/videos"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
)

// VideoList returns the catalog, optionally filtered by category.
func VideoList(svc videosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		videos, err := svc.List(r.Context(), r.URL.Query().Get("category"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, videos)
	}
}

// VideoAccess answers whether the caller may watch the video and why.
// Anonymous callers are allowed; they just get login_required on premium
// content.
func VideoAccess(svc videosvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "video service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "videoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid video id"))
			return
		}

		result, err := svc.CanAccess(r.Context(), id, middleware.IdentityFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
