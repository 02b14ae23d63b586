package jobs

import (
	"fmt"
	"log"
	"time"

	"CashbookRecon/internal/config"
	"CashbookRecon/internal/logger"
	"CashbookRecon/internal/workspace"

	"github.com/robfig/cron/v3"
)

type SnapshotConfig struct {
	Schedule       string
	TimeZone       string
	RestoreOnStart bool
}

func NewDefaultSnapshotConfig() SnapshotConfig {
	return SnapshotConfig{
		Schedule:       config.DefaultSnapshotSchedule,
		TimeZone:       config.DefaultTimeZone,
		RestoreOnStart: true,
	}
}

// Snapshotter is the part of the workspace registry the job needs.
type Snapshotter interface {
	SnapshotAll() (int, error)
	RestoreAll() (int, error)
	Count() int
}

var _ Snapshotter = (*workspace.Registry)(nil)

// RunSnapshotScheduler schedules SnapshotAll and returns the started cron.
func RunSnapshotScheduler(cfg SnapshotConfig, reg Snapshotter) (*cron.Cron, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = config.DefaultSnapshotSchedule
	}
	if cfg.TimeZone == "" {
		cfg.TimeZone = config.DefaultTimeZone
	}
	loc, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err = c.AddFunc(cfg.Schedule, func() {
		if err := SnapshotWorkspaces(reg); err != nil {
			logger.Audit("Workspace snapshot failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("unable to schedule workspace snapshots: %v", err)
	}
	c.Start()
	logger.Audit("Workspace snapshot scheduler started (%s)", cfg.Schedule)
	return c, nil
}

// SnapshotWorkspaces writes snapshots of changed workspaces. It is the body
// of the scheduled job.
func SnapshotWorkspaces(reg Snapshotter) error {
	start := time.Now()
	n, err := reg.SnapshotAll()
	if n > 0 {
		log.Printf("[SNAPSHOT] wrote %d of %d workspaces in %s", n, reg.Count(), time.Since(start).Round(time.Millisecond))
	}
	return err
}
