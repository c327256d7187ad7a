package store

import (
	"errors"
	"net/http"
	"strings"

	"github.com/georgemunganga/souq-backend/internal/modules/auth"
	"github.com/georgemunganga/souq-backend/internal/web"
)

// Authorize runs the admin gate shared by every dashboard endpoint: an
// authenticated caller (401), a store it may administer (403), then the
// handler. It writes the failure response itself and reports whether to
// continue.
func Authorize(svc Service, w http.ResponseWriter, r *http.Request, storeID string) (*Store, bool) {
	id := auth.FromContext(r.Context())
	if id.Anonymous() {
		web.Fail(w, http.StatusUnauthorized, auth.MsgUnauthenticated)
		return nil, false
	}
	st, err := svc.ResolveAdminStore(r.Context(), id, strings.TrimSpace(storeID))
	if err != nil {
		WriteError(w, r, err)
		return nil, false
	}
	return st, true
}

// AuthorizeOnboarded is Authorize for pages the first-run wizard gates.
// The super-admin is never gated.
func AuthorizeOnboarded(svc Service, w http.ResponseWriter, r *http.Request, storeID string) (*Store, bool) {
	st, ok := Authorize(svc, w, r, storeID)
	if !ok {
		return nil, false
	}
	if !st.Onboarded && !auth.FromContext(r.Context()).SuperAdmin() {
		web.Fail(w, http.StatusForbidden, ErrOnboardingIncomplete.Error())
		return nil, false
	}
	return st, true
}

// WriteError maps store failures to responses.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	msg := err.Error()
	switch {
	case errors.Is(err, ErrForbidden):
		web.Fail(w, http.StatusForbidden, auth.MsgForbidden)
	case errors.Is(err, ErrStoreNotFound), errors.Is(err, ErrNoStore):
		web.Fail(w, http.StatusNotFound, msg)
	case errors.Is(err, ErrSlugTaken):
		web.Fail(w, http.StatusConflict, msg)
	case errors.Is(err, ErrOnboardingIncomplete):
		web.Fail(w, http.StatusUnprocessableEntity, msg)
	case strings.Contains(msg, "required") || strings.Contains(msg, "invalid") || strings.Contains(msg, "at least"):
		web.Fail(w, http.StatusBadRequest, msg)
	default:
		web.ServerError(w, r, err)
	}
}
