package ui

import (
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"fabric-bridge/internal/decision"
	"fabric-bridge/internal/domain"
)

func (h *Handler) SessionsList(w http.ResponseWriter, r *http.Request) {
	page := pageFromRequest(r, 25)
	sessions, total, err := h.Sessions.ListSessions(r.Context(), page)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	rows := make([]sessionRowData, 0, len(sessions))
	for _, s := range sessions {
		row := sessionRowData{
			Filter:  s.Name,
			Name:    s.Name,
			URL:     "/ui/sessions/" + s.ID,
			Factory: s.FactoryName,
			Updated: formatTime(s.UpdatedAt),
		}
		// Summary is best effort on the list page; a session with no scan
		// yet reports 100% with zero references, which reads as ready.
		if summary, err := h.Sessions.Summary(r.Context(), s.ID); err == nil {
			row.Progress = summary.MappingPercentage
			row.Ready = summary.ReadyToDeploy
		}
		rows = append(rows, row)
	}
	renderHTML(w, http.StatusOK, sessionsListPage(principalFromContext(r.Context()), rows, page, total))
}

func (h *Handler) SessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.Sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}
	summary, err := h.Sessions.Summary(r.Context(), sessionID)
	if err != nil {
		h.renderServiceError(w, r, err)
		return
	}

	pipelines := make([]pipelineRowData, 0, len(summary.Pipelines))
	for _, p := range summary.Pipelines {
		pipelines = append(pipelines, pipelineRowData{
			Name:       p.PipelineName,
			Activities: p.TotalActivities,
			References: p.TotalReferences,
			Mapped:     p.MappedReferences,
			Percent:    p.MappingPercentage,
		})
	}

	var skipRows []skipRowData
	if plan, err := h.Sessions.PlanSkips(r.Context(), sessionID); err == nil {
		types := make([]string, 0, len(plan))
		for t := range plan {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			d := plan[t]
			row := skipRowData{
				SourceType: d.SourceType,
				FabricType: d.FabricType,
				Message:    decision.DecisionMessage(d),
			}
			switch {
			case d.ShouldSkip:
				row.Decision = "skip"
				row.Tone = "danger"
			case d.Status == domain.VerificationUnavailable:
				row.Decision = "include (unverified)"
				row.Tone = "attention"
			default:
				row.Decision = "include"
				row.Tone = "success"
			}
			skipRows = append(skipRows, row)
		}
	}

	renderHTML(w, http.StatusOK, sessionDetailPage(sessionDetailPageData{
		Principal: principalFromContext(r.Context()),
		Session:   *session,
		Summary:   *summary,
		Pipelines: pipelines,
		SkipPlan:  skipRows,
	}))
}

func (h *Handler) SupportedTypes(w http.ResponseWriter, r *http.Request) {
	snap := h.Registry.SupportedTypes(r.Context())
	renderHTML(w, http.StatusOK, supportedTypesPage(principalFromContext(r.Context()), snap))
}

func (h *Handler) renderServiceError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusInternalServerError
	title := "Unexpected Error"
	message := "An unexpected error occurred while loading this page."

	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	if errors.As(err, &notFound) {
		status = http.StatusNotFound
		title = "Not Found"
		message = notFound.Error()
	} else if errors.As(err, &accessDenied) {
		status = http.StatusForbidden
		title = "Access Denied"
		message = accessDenied.Error()
	} else if errors.As(err, &validation) {
		status = http.StatusBadRequest
		title = "Invalid Request"
		message = validation.Error()
	} else if errors.As(err, &conflict) {
		status = http.StatusConflict
		title = "Conflict"
		message = conflict.Error()
	}

	renderHTML(w, status, errorPage(title, message))
}
