package appmanager

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"CashbookRecon/api"
	"CashbookRecon/internal/jobs"
	"CashbookRecon/internal/logger"
	"CashbookRecon/internal/reportstore"
	"CashbookRecon/internal/serviceiface"
	"CashbookRecon/internal/workspace"

	"gopkg.in/yaml.v3"
)

var (
	reportStore reportstore.Store
	registry    *workspace.Registry
)

// SetStore wires the report store used by the gateway. It must be called
// before AutoRegisterServices.
func SetStore(s reportstore.Store) {
	reportStore = s
}

func GetStore() reportstore.Store {
	return reportStore
}

// GetRegistry returns the workspace registry, creating one with default
// settings when services.yaml has no workspaces entry.
func GetRegistry() *workspace.Registry {
	if registry == nil {
		registry = workspace.NewService(nil).Registry()
	}
	return registry
}

var serviceConstructors = map[string]func(map[string]interface{}) serviceiface.Service{
	"logger": func(cfg map[string]interface{}) serviceiface.Service {
		return logger.NewLoggerService(cfg)
	},
	"workspaces": func(cfg map[string]interface{}) serviceiface.Service {
		svc := workspace.NewService(cfg)
		registry = svc.Registry()
		return svc
	},
	"cron": func(cfg map[string]interface{}) serviceiface.Service {
		return jobs.NewCronService(cfg, GetRegistry())
	},
	"gateway": func(cfg map[string]interface{}) serviceiface.Service {
		return api.NewGatewayService(cfg, reportStore, GetRegistry())
	},
}

// ------------------- MANAGER -------------------

type AppManager struct {
	services []serviceiface.Service
	mu       sync.Mutex
}

func NewAppManager() *AppManager {
	return &AppManager{
		services: make([]serviceiface.Service, 0),
	}
}

func (am *AppManager) RegisterService(s serviceiface.Service) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.services = append(am.services, s)
}

func (am *AppManager) StartAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()

	for _, service := range am.services {
		log.Println("Starting service:", service.Name())
		if err := service.Start(); err != nil {
			return fmt.Errorf("failed to start service %s: %w", service.Name(), err)
		}
	}
	return nil
}

// StopAll stops services in reverse start order. Every service is asked
// to stop; the first error is returned.
func (am *AppManager) StopAll() error {
	am.mu.Lock()
	defer am.mu.Unlock()
	var first error
	for i := len(am.services) - 1; i >= 0; i-- {
		svc := am.services[i]
		if err := svc.Stop(); err != nil && first == nil {
			first = fmt.Errorf("failed to stop service %s: %w", svc.Name(), err)
		}
	}
	return first
}

// ------------------- YAML CONFIG -------------------

type ServiceSequencer struct {
	Services []ServiceConfig `yaml:"services"`
}

type ServiceConfig struct {
	Name       string                 `yaml:"name"`
	StartOrder int                    `yaml:"start_order"`
	Config     map[string]interface{} `yaml:"config"`
}

func LoadServiceSequence(path string) ([]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseServiceSequence(data)
}

func ParseServiceSequence(data []byte) ([]ServiceConfig, error) {
	var seq ServiceSequencer
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, err
	}

	// sort by start_order
	sort.SliceStable(seq.Services, func(i, j int) bool {
		return seq.Services[i].StartOrder < seq.Services[j].StartOrder
	})

	return seq.Services, nil
}

func (am *AppManager) AutoRegisterServices(configs []ServiceConfig) {
	for _, svc := range configs {
		constructor, ok := serviceConstructors[svc.Name]
		if !ok {
			log.Printf("[WARN] unknown service %q in services.yaml, skipping", svc.Name)
			continue
		}
		am.RegisterService(constructor(svc.Config))
	}

	for _, svc := range am.services {
		if l, ok := svc.(*logger.LoggerService); ok {
			logger.SetGlobalLogger(l)
			break
		}
	}
}

func (am *AppManager) GetServiceByName(name string) serviceiface.Service {
	for _, svc := range am.services {
		if svc.Name() == name {
			return svc
		}
	}
	return nil
}

/*
Example services.yaml:
services:
  - name: logger
    start_order: 1
    config:
      folder_path: ./logs
      max_file_mb: 5
      retention_days: 7
  - name: workspaces
    start_order: 2
    config:
      ttl: 2h
      snapshot_dir: ./data/workspaces
  - name: cron
    start_order: 3
    config:
      snapshot_schedule: "@every 1m"
  - name: gateway
    start_order: 4
    config:
      port: 8081
      rate_per_second: 10
      burst: 30
*/
