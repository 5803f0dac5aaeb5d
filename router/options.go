package router

import (
	"net/http"

	"catalogd/internal/googleauth"
	"catalogd/internal/store"
)

type Options struct {
	Store    *store.Store
	Verifier googleauth.Verifier

	// frontend-backend-separation
	FrontendBaseURL   string // optional; if set, non-API requests redirect to this base.
	FrontendDistDir   string // optional; e.g. "./web/dist" for serving static assets.
	FrontendIndexPage []byte // optional; when empty, SPA routes read dist/index.html at request time.

	// system
	Healthz http.HandlerFunc
}
