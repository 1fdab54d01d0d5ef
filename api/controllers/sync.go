package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/angelmondragon/vitalflex-backend/api/middleware"
	"github.com/angelmondragon/vitalflex-backend/api/responses"
	"github.com/angelmondragon/vitalflex-backend/internal/syncer"
	pkgerrors "github.com/angelmondragon/vitalflex-backend/pkg/errors"
	"github.com/angelmondragon/vitalflex-backend/pkg/logger"
)

// SyncStart opens the caller's sync session. Safe to call on every sign-in.
func SyncStart(engine *syncer.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		if err := engine.StartSession(r.Context(), identity.UserID, identity.Email); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "starting sync session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "syncing"})
	}
}

// SyncStop tears down the caller's session and drops their cached data.
func SyncStop(engine *syncer.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		engine.StopSession(identity.UserID)
		responses.WriteSuccess(w, map[string]string{"status": "stopped"})
	}
}

// SyncRefresh forces an immediate fetch outside the poll schedule.
func SyncRefresh(engine *syncer.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		if err := engine.RefreshNow(r.Context(), identity.UserID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeStateConflict, err, "no sync session"))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "refreshed"})
	}
}

// SyncEvents streams the caller's sync broadcasts as server-sent events until
// the client disconnects. Slow consumers drop events rather than stalling the
// engine's broadcast path.
func SyncEvents(engine *syncer.Engine, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := middleware.IdentityFromContext(r.Context())
		if identity == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		events := make(chan syncer.Event, 16)
		unregister := engine.Bridge().Register(func(event syncer.Event) {
			if event.UserID != identity.UserID {
				return
			}
			select {
			case events <- event:
			default:
			}
		})
		defer unregister()

		ctx := r.Context()
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events:
				payload, err := json.Marshal(event)
				if err != nil {
					if logg != nil {
						logg.Error(ctx, "encoding sync event", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Kind, payload)
				flusher.Flush()
			}
		}
	}
}
