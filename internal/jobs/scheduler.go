package jobs

import (
	"log"
	"time"

	"CashbookRecon/internal/config"
	"CashbookRecon/internal/logger"
	"CashbookRecon/internal/serviceiface"

	"github.com/robfig/cron/v3"
)

type CronService struct {
	config map[string]interface{}
	reg    Snapshotter
	cron   *cron.Cron
}

func NewCronService(cfg map[string]interface{}, reg Snapshotter) serviceiface.Service {
	return &CronService{
		config: cfg,
		reg:    reg,
	}
}

func (s *CronService) Name() string {
	return "cron"
}

func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	snapCfg := NewDefaultSnapshotConfig()
	snapCfg.Schedule = config.String(s.config, "snapshot_schedule", snapCfg.Schedule)
	snapCfg.TimeZone = config.String(s.config, "timezone", snapCfg.TimeZone)
	snapCfg.RestoreOnStart = config.Bool(s.config, "restore_on_start", snapCfg.RestoreOnStart)

	if snapCfg.RestoreOnStart {
		n, err := s.reg.RestoreAll()
		if err != nil {
			logger.Error("restoring workspace snapshots: %v", err)
		}
		logger.Audit("Restored %d workspaces from snapshots", n)
	}

	c, err := RunSnapshotScheduler(snapCfg, s.reg)
	if err != nil {
		return err
	}
	s.cron = c
	log.Println("Cron service started, workspace snapshots scheduled")
	return nil
}

// Stop waits for a running snapshot, then takes a final one.
func (s *CronService) Stop() error {
	if s.cron != nil {
		ctx := s.cron.Stop()
		select {
		case <-ctx.Done():
		case <-time.After(30 * time.Second):
		}
	}
	if err := SnapshotWorkspaces(s.reg); err != nil {
		logger.Error("final workspace snapshot: %v", err)
	}
	log.Println("Cron service stopped.")
	return nil
}
