package workspace

import (
	"log"
	"time"

	"CashbookRecon/internal/config"
	"CashbookRecon/internal/serviceiface"
)

// Service exposes the registry to the app manager. It reads ttl,
// cleanup_interval, snapshot_dir and timezone from services.yaml.
type Service struct {
	config   map[string]interface{}
	registry *Registry
}

func NewService(cfg map[string]interface{}) *Service {
	loc, err := time.LoadLocation(config.String(cfg, "timezone", config.DefaultTimeZone))
	if err != nil {
		loc = time.UTC
	}
	// An explicit empty snapshot_dir turns snapshots off.
	dir := config.DefaultSnapshotDir
	if v, ok := cfg["snapshot_dir"]; ok {
		dir, _ = v.(string)
	}
	return &Service{
		config: cfg,
		registry: NewRegistry(
			config.Duration(cfg, "ttl", config.DefaultWorkspaceTTL),
			config.Duration(cfg, "cleanup_interval", config.DefaultWorkspaceCleanup),
			dir,
			loc,
		),
	}
}

var _ serviceiface.Service = (*Service)(nil)

func (s *Service) Name() string { return "workspaces" }

func (s *Service) Registry() *Registry { return s.registry }

func (s *Service) Start() error {
	log.Printf("[INFO] Workspace registry ready, snapshots in %q", s.registry.dir)
	return nil
}

func (s *Service) Stop() error {
	log.Printf("[INFO] Workspace registry stopping with %d live workspaces", s.registry.Count())
	return nil
}
