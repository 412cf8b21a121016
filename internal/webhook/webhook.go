// internal/webhook/webhook.go
//
// HTTP boundary: the upstream CMS webhook.
//
/*
Context
--------
The CMS delivers change notifications as JSON POSTs:

	{ "event": "entry.create|entry.update|entry.delete",
	  "model": "user",
	  "entry": { …attribute map… } }

with two headers: Strapi-Signature (hex HMAC-SHA256 of the raw body) and
X-Company-Id (the tenant).  This package verifies the signature, plucks
the tenant, and hands the event to the synchronizer.  It owns no state
machine of its own — it is a thin translation from HTTP to sync.Event
and from typed errors to status codes.

Routes
------
	POST /strapi/webhook  – signature-guarded event intake.
	GET  /healthz         – liveness probe.

Notes
-----
  • Non-user models are acknowledged with 200 and ignored, so the CMS
    does not retry them forever.
  • Error mapping: validation 400, not-found 404, everything else 500.
  • Oxford commas, two spaces after periods.
*/
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yanizio/usersync/internal/requestinfo"
	"github.com/yanizio/usersync/internal/store"
	"github.com/yanizio/usersync/internal/sync"
)

const (
	signatureHeader = "Strapi-Signature"
	tenantHeader    = "X-Company-Id"
	maxBody         = 1 << 20 // cap webhook bodies at 1 MiB
)

// Syncer is the slice of the synchronizer the handler needs.
type Syncer interface {
	Apply(ctx context.Context, ev sync.Event) (map[string]any, error)
}

// Handler serves the webhook surface.
type Handler struct {
	sync   Syncer
	secret []byte
	log    *zap.SugaredLogger
}

// New builds a Handler.  secret is the shared HMAC key configured on the
// CMS side.
func New(s Syncer, secret string, log *zap.SugaredLogger) *Handler {
	return &Handler{sync: s, secret: []byte(secret), log: log}
}

// Router mounts the webhook routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestinfo.Enrich)

	r.Post("/strapi/webhook", h.handleEvent)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	return r
}

/*──────────────────────────── event intake ────────────────────────────────*/

// payload mirrors the CMS webhook body.
type payload struct {
	Event string         `json:"event"`
	Model string         `json:"model"`
	Entry map[string]any `json:"entry"`
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("cannot read body"))
		return
	}

	// Signature check runs over the raw body, before any parsing.
	if !h.verify(body, r.Header.Get(signatureHeader)) {
		writeJSON(w, http.StatusUnauthorized, errBody("invalid signature"))
		return
	}

	tenantID := r.Header.Get(tenantHeader)
	if tenantID == "" {
		writeJSON(w, http.StatusBadRequest, errBody(tenantHeader+" header is required"))
		return
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		writeJSON(w, http.StatusBadRequest, errBody("malformed payload"))
		return
	}

	if p.Model != "user" {
		writeJSON(w, http.StatusOK, map[string]any{"message": "ignoring non-user event"})
		return
	}

	view, err := h.sync.Apply(r.Context(), sync.Event{
		Kind:     sync.Kind(p.Event),
		TenantID: tenantID,
		Entry:    p.Entry,
	})
	if err != nil {
		h.log.Errorw("event failed",
			"event", p.Event, "tenant", tenantID, "err", err)
		writeJSON(w, statusFor(err), errBody(err.Error()))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "webhook processed successfully",
		"user":    view,
	})
}

// verify compares the hex HMAC-SHA256 of body against the header value
// in constant time.
func (h *Handler) verify(body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, h.secret)
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sync.ErrInvalidTenant),
		errors.Is(err, sync.ErrUnknownEvent),
		errors.Is(err, sync.ErrMissingEmail):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func errBody(msg string) map[string]any { return map[string]any{"error": msg} }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
