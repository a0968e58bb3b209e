// Package app provides application-level wiring and dependency injection
// for fabric-bridge following hexagonal architecture.
package app

import (
	"database/sql"
	"fmt"
	"log/slog"

	"fabric-bridge/internal/config"
	"fabric-bridge/internal/db/repository"
	"fabric-bridge/internal/decision"
	"fabric-bridge/internal/domain"
	"fabric-bridge/internal/fabric"
	"fabric-bridge/internal/mapping"
	"fabric-bridge/internal/registry"
	"fabric-bridge/internal/service"
	"fabric-bridge/internal/source"
)

// Deps holds the external dependencies that main() must provide:
// the session database handle, config, and logger.
type Deps struct {
	Cfg    *config.Config
	DB     *sql.DB
	Logger *slog.Logger

	// Fabric overrides the real metadata client when set. Used by tests and
	// the CLI's offline mode; nil means a client is built from config.
	Fabric interface {
		domain.ConnectorMetadataAPI
		domain.ConnectionProvider
	}
}

// App holds the fully-wired application: the session service, the
// supported-types registry, the skip-decision engine, and the repositories
// the router needs directly.
type App struct {
	Sessions  *service.SessionService
	Registry  *registry.Registry
	Decisions *decision.Engine
	Fabric    domain.ConnectionProvider
	AuditRepo *repository.AuditRepo

	// Source is the server-configured export source, nil unless the Blob
	// source settings are present in config.
	Source source.Loader
}

// New wires all repositories and services from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	sessionRepo := repository.NewSessionRepo(deps.DB)
	referenceRepo := repository.NewReferenceRepo(deps.DB)
	mappingRepo := repository.NewMappingRepo(deps.DB)
	auditRepo := repository.NewAuditRepo(deps.DB)

	var fabricAPI interface {
		domain.ConnectorMetadataAPI
		domain.ConnectionProvider
	}
	if deps.Fabric != nil {
		fabricAPI = deps.Fabric
	} else {
		fabricAPI = fabric.NewClient(cfg.FabricAPIBaseURL, fabric.StaticToken(cfg.FabricToken), nil)
	}

	reg := registry.New(fabricAPI, logger.With("component", "registry"))
	decisions := decision.NewEngine(reg)

	policy := mapping.AutoApplyPolicy{
		CrossPipeline:   cfg.AutoApplyCrossPipeline,
		CaseInsensitive: cfg.AutoApplyCaseInsensitive,
	}

	sessions := service.NewSessionService(
		sessionRepo, referenceRepo, mappingRepo, auditRepo,
		fabricAPI, decisions, policy,
		logger.With("component", "sessions"),
	)

	var exportSource source.Loader
	if cfg.Blob.Configured() {
		loader, err := source.NewBlobLoader(
			cfg.Blob.AccountName, cfg.Blob.AccountKey,
			cfg.Blob.Container, cfg.Blob.Prefix,
			logger.With("component", "source"),
		)
		if err != nil {
			return nil, fmt.Errorf("configure blob export source: %w", err)
		}
		exportSource = loader
		logger.Info("blob export source configured",
			"account", cfg.Blob.AccountName, "container", cfg.Blob.Container)
	}

	return &App{
		Sessions:  sessions,
		Registry:  reg,
		Decisions: decisions,
		Fabric:    fabricAPI,
		AuditRepo: auditRepo,
		Source:    exportSource,
	}, nil
}
