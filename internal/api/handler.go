// Package api provides HTTP handlers for the migration REST API.
package api

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"fabric-bridge/internal/adf"
	"fabric-bridge/internal/decision"
	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/export"
	"fabric-bridge/internal/registry"
	"fabric-bridge/internal/service"
	"fabric-bridge/internal/source"
)

// maxScanBody caps the size of an uploaded ARM template.
const maxScanBody = 32 << 20

// Handler serves the migration API.
type Handler struct {
	sessions    *service.SessionService
	registry    *registry.Registry
	decisions   *decision.Engine
	connections domain.ConnectionProvider
	audit       domain.AuditRepository
	source      source.Loader
	logger      *slog.Logger
}

// NewHandler creates a new Handler with all required service dependencies.
// src is the server-configured export source; nil disables scan-source.
func NewHandler(
	sessions *service.SessionService,
	reg *registry.Registry,
	decisions *decision.Engine,
	connections domain.ConnectionProvider,
	audit domain.AuditRepository,
	src source.Loader,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sessions:    sessions,
		registry:    reg,
		decisions:   decisions,
		connections: connections,
		audit:       audit,
		source:      src,
		logger:      logger,
	}
}

// --- helpers ---

func principalName(r *http.Request) string {
	if p, ok := domain.PrincipalFromContext(r.Context()); ok {
		return p.Name
	}
	return ""
}

func pageFromQuery(r *http.Request) domain.PageRequest {
	p := domain.PageRequest{PageToken: r.URL.Query().Get("page_token")}
	if v := r.URL.Query().Get("max_results"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxResults = n
		}
	}
	return p
}

// --- sessions ---

type sessionResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FactoryName string    `json:"factory_name,omitempty"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func sessionToAPI(s domain.MigrationSession) sessionResponse {
	return sessionResponse{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		FactoryName: s.FactoryName,
		CreatedBy:   s.CreatedBy,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		FactoryName string `json:"factory_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}

	session, err := h.sessions.CreateSession(r.Context(), principalName(r), domain.CreateSessionRequest{
		Name:        body.Name,
		Description: body.Description,
		FactoryName: body.FactoryName,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionToAPI(*session))
}

func (h *Handler) listSessions(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	sessions, total, err := h.sessions.ListSessions(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]sessionResponse, len(sessions))
	for i, s := range sessions {
		out[i] = sessionToAPI(s)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions":        out,
		"total":           total,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionToAPI(*session))
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.DeleteSession(r.Context(), principalName(r), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- scanning ---

// scanSession accepts an ARM-template export as the request body and scans
// its pipelines into the session.
func (h *Handler) scanSession(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxScanBody))
	if err != nil {
		writeError(w, fmt.Errorf("read body: %w", err))
		return
	}
	factoryExport, err := adf.ParseARMTemplate(data)
	if err != nil {
		writeError(w, domain.ErrValidation("%v", err))
		return
	}

	result, err := h.sessions.ScanExport(r.Context(), principalName(r), chi.URLParam(r, "id"), factoryExport)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pipelines":       result.Pipelines,
		"references":      result.References,
		"orphaned_marked": result.OrphanedMarked,
		"per_pipeline":    result.PipelineResults,
	})
}

// scanSessionFromSource scans the session from the export source configured
// on the server (Azure Blob), so clients do not have to upload the template
// themselves.
func (h *Handler) scanSessionFromSource(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeError(w, domain.ErrValidation("no export source is configured on this server"))
		return
	}
	factoryExport, err := h.source.Load(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("load export source: %w", err))
		return
	}

	result, err := h.sessions.ScanExport(r.Context(), principalName(r), chi.URLParam(r, "id"), factoryExport)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"pipelines":       result.Pipelines,
		"references":      result.References,
		"orphaned_marked": result.OrphanedMarked,
		"per_pipeline":    result.PipelineResults,
	})
}

// --- references & mappings ---

type referenceResponse struct {
	ID                 string `json:"id"`
	PipelineName       string `json:"pipeline_name"`
	ActivityName       string `json:"activity_name"`
	ActivityType       string `json:"activity_type"`
	Location           string `json:"location"`
	Index              int    `json:"index"`
	LinkedServiceName  string `json:"linked_service_name,omitempty"`
	LinkedServiceType  string `json:"linked_service_type,omitempty"`
	DatasetName        string `json:"dataset_name,omitempty"`
	TargetPipelineName string `json:"target_pipeline_name,omitempty"`
	IsNested           bool   `json:"is_nested"`
	NestingPath        string `json:"nesting_path,omitempty"`
	Orphaned           bool   `json:"orphaned"`
}

func (h *Handler) listReferences(w http.ResponseWriter, r *http.Request) {
	refs, err := h.sessions.ListReferences(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]referenceResponse, len(refs))
	for i, ref := range refs {
		out[i] = referenceResponse{
			ID:                 ref.ID(),
			PipelineName:       ref.PipelineName,
			ActivityName:       ref.ActivityName,
			ActivityType:       ref.ActivityType,
			Location:           ref.Location,
			Index:              ref.Index,
			LinkedServiceName:  ref.LinkedServiceName,
			LinkedServiceType:  ref.LinkedServiceType,
			DatasetName:        ref.DatasetName,
			TargetPipelineName: ref.TargetPipelineName,
			IsNested:           ref.IsNested,
			NestingPath:        ref.NestingPath,
			Orphaned:           ref.Orphaned,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"references": out})
}

func (h *Handler) setMapping(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ReferenceID  string `json:"reference_id"`
		ConnectionID string `json:"connection_id"`
		AutoApply    bool   `json:"auto_apply"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, domain.ErrValidation("invalid request body: %v", err))
		return
	}
	if body.ReferenceID == "" || body.ConnectionID == "" {
		writeError(w, domain.ErrValidation("reference_id and connection_id are required"))
		return
	}

	err := h.sessions.SetMapping(r.Context(), principalName(r),
		chi.URLParam(r, "id"), body.ReferenceID, body.ConnectionID, body.AutoApply)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearMapping(w http.ResponseWriter, r *http.Request) {
	refID := r.URL.Query().Get("reference_id")
	if refID == "" {
		writeError(w, domain.ErrValidation("reference_id query parameter is required"))
		return
	}
	if err := h.sessions.ClearMapping(r.Context(), principalName(r), chi.URLParam(r, "id"), refID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type mappingResponse struct {
	ReferenceID          string    `json:"reference_id"`
	SelectedConnectionID string    `json:"selected_connection_id"`
	Origin               string    `json:"origin"`
	LinkedServiceName    string    `json:"linked_service_name,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func (h *Handler) listMappings(w http.ResponseWriter, r *http.Request) {
	mappings, err := h.sessions.ListMappings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]mappingResponse, len(mappings))
	for i, m := range mappings {
		out[i] = mappingResponse{
			ReferenceID:          m.ReferenceID,
			SelectedConnectionID: m.SelectedConnectionID,
			Origin:               m.Origin,
			LinkedServiceName:    m.LinkedServiceName,
			UpdatedAt:            m.UpdatedAt,
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"mappings": out})
}

func (h *Handler) listConnectionTargets(w http.ResponseWriter, r *http.Request) {
	refID := r.URL.Query().Get("reference_id")
	if refID == "" {
		writeError(w, domain.ErrValidation("reference_id query parameter is required"))
		return
	}
	conns, err := h.sessions.ListConnectionTargets(r.Context(), chi.URLParam(r, "id"), refID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"connections": connectionsToAPI(conns)})
}

type connectionResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ConnectorType string `json:"connector_type"`
}

func connectionsToAPI(conns []domain.FabricConnection) []connectionResponse {
	out := make([]connectionResponse, len(conns))
	for i, c := range conns {
		out[i] = connectionResponse{ID: c.ID, Name: c.Name, ConnectorType: c.ConnectorType}
	}
	return out
}

func (h *Handler) listConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.connections.ListConnections(r.Context())
	if err != nil {
		writeError(w, fmt.Errorf("list connections: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"connections": connectionsToAPI(conns)})
}

// --- summaries, skip plans, supported types ---

func (h *Handler) sessionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.Summary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) pipelineSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.sessions.PipelineSummary(r.Context(),
		chi.URLParam(r, "id"), chi.URLParam(r, "pipeline"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

type skipDecisionResponse struct {
	SourceType     string   `json:"source_type"`
	FabricType     string   `json:"fabric_type"`
	ShouldSkip     bool     `json:"should_skip"`
	Reason         string   `json:"reason"`
	Status         string   `json:"verification_status"`
	AvailableTypes []string `json:"available_types"`
	Message        string   `json:"message"`
}

func skipDecisionToAPI(d domain.SkipDecision) skipDecisionResponse {
	return skipDecisionResponse{
		SourceType:     d.SourceType,
		FabricType:     d.FabricType,
		ShouldSkip:     d.ShouldSkip,
		Reason:         d.Reason,
		Status:         string(d.Status),
		AvailableTypes: d.AvailableTypes,
		Message:        decision.DecisionMessage(d),
	}
}

func (h *Handler) skipPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := h.sessions.PlanSkips(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	out := make(map[string]skipDecisionResponse, len(plan))
	for t, d := range plan {
		out[t] = skipDecisionToAPI(d)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"decisions": out})
}

func (h *Handler) skipDecision(w http.ResponseWriter, r *http.Request) {
	adfType := r.URL.Query().Get("type")
	if adfType == "" {
		writeError(w, domain.ErrValidation("type query parameter is required"))
		return
	}
	writeJSON(w, http.StatusOK, skipDecisionToAPI(h.decisions.Decide(r.Context(), adfType)))
}

func (h *Handler) supportedTypes(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.SupportedTypes(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verification_status": string(snap.Status),
		"types":               snap.Types,
		"fetched_at":          snap.FetchedAt,
	})
}

func (h *Handler) refreshSupportedTypes(w http.ResponseWriter, r *http.Request) {
	snap := h.registry.Refresh(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"verification_status": string(snap.Status),
		"types":               snap.Types,
		"fetched_at":          snap.FetchedAt,
	})
}

// --- exports ---

func (h *Handler) exportComponentsCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	refs, err := h.sessions.ListReferences(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	mappingList, err := h.sessions.ListMappings(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	plan, err := h.sessions.PlanSkips(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	mappings := make(map[string]domain.ConnectionMapping, len(mappingList))
	for _, m := range mappingList {
		mappings[m.ReferenceID] = m
	}
	connIndex := map[string]domain.FabricConnection{}
	if conns, err := h.connections.ListConnections(r.Context()); err == nil {
		for _, c := range conns {
			connIndex[c.ID] = c
		}
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename("components", time.Now())))
	if err := export.WriteComponentCSV(w, refs, mappings, plan, connIndex); err != nil {
		h.logger.Error("component csv export failed", "session", sessionID, "error", err)
	}
}

func (h *Handler) exportPipelinesCSV(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	summary, err := h.sessions.Summary(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", export.Filename("pipelines", time.Now())))
	if err := export.WritePipelineCSV(w, summary.Pipelines); err != nil {
		h.logger.Error("pipeline csv export failed", "session", sessionID, "error", err)
	}
}

func (h *Handler) exportStateYAML(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	session, err := h.sessions.GetSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	mappings, err := h.sessions.ListMappings(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	if err := export.WriteSessionYAML(w, session, mappings); err != nil {
		h.logger.Error("yaml export failed", "session", sessionID, "error", err)
	}
}

// --- audit ---

func (h *Handler) listAudit(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	entries, total, err := h.audit.ListBySession(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":         entries,
		"total":           total,
		"next_page_token": domain.NextPageToken(page.Offset(), page.Limit(), total),
	})
}
