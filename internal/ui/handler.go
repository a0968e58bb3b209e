// Package ui renders the read-only migration status pages.
package ui

import (
	"context"
	"net/http"
	"strconv"

	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/registry"
	"fabric-bridge/internal/service"

	gomponents "maragu.dev/gomponents"
)

type Handler struct {
	Sessions   *service.SessionService
	Registry   *registry.Registry
	Production bool
}

func NewHandler(sessions *service.SessionService, reg *registry.Registry, production bool) *Handler {
	return &Handler{Sessions: sessions, Registry: reg, Production: production}
}

func pageFromRequest(r *http.Request, defaultPageSize int) domain.PageRequest {
	maxResults := defaultPageSize
	if maxResults <= 0 {
		maxResults = 25
	}
	if raw := r.URL.Query().Get("max_results"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			maxResults = parsed
		}
	}
	if maxResults < 1 {
		maxResults = 1
	}
	if maxResults > 200 {
		maxResults = 200
	}
	return domain.PageRequest{
		MaxResults: maxResults,
		PageToken:  r.URL.Query().Get("page_token"),
	}
}

func renderHTML(w http.ResponseWriter, status int, node gomponents.Node) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = node.Render(w)
}

func principalFromContext(ctx context.Context) domain.ContextPrincipal {
	p, ok := domain.PrincipalFromContext(ctx)
	if !ok {
		return domain.ContextPrincipal{Name: "anonymous", Type: "user"}
	}
	return p
}
