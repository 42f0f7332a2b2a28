package store

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
)

// Snapshotter periodically copies the persisted blob to timestamped backup
// files, independent of which backend holds the live state.
type Snapshotter struct {
	store *Store
	dir   string
	cron  *cron.Cron
}

func NewSnapshotter(s *Store, dir string) *Snapshotter {
	return &Snapshotter{store: s, dir: dir, cron: cron.New()}
}

// Start schedules snapshots with the given cron spec and runs until Stop.
func (sn *Snapshotter) Start(schedule string) error {
	if err := os.MkdirAll(sn.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if _, err := sn.cron.AddFunc(schedule, func() {
		if err := sn.Snapshot(); err != nil {
			log.Printf("snapshot failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
	}
	sn.cron.Start()
	return nil
}

func (sn *Snapshotter) Stop() {
	sn.cron.Stop()
}

// Snapshot writes one timestamped backup of the current state.
func (sn *Snapshotter) Snapshot() error {
	data, err := sn.store.Snapshot()
	if err != nil {
		return fmt.Errorf("failed to serialize state: %w", err)
	}
	name := fmt.Sprintf("%s-%s.json", StorageKey, time.Now().UTC().Format("20060102T150405"))
	path := filepath.Join(sn.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot %s: %w", path, err)
	}
	return nil
}
