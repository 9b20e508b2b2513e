package dma

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/attorneymap/attorneymap/app/repository"
	"github.com/attorneymap/attorneymap/internal/pkg/s3backup"
	"github.com/gofiber/fiber/v2/log"
)

// DefaultBackupDir is where region snapshots are written.
const DefaultBackupDir = "data/backups"

// BackupRegionStore lists and deletes regions.
type BackupRegionStore interface {
	List(ctx context.Context) ([]models.Region, error)
	Delete(ctx context.Context, id uint) error
}

// BackupMappingStore exports and clears zip-to-region mappings.
type BackupMappingStore interface {
	ListDetailed(ctx context.Context) ([]repository.MappingExport, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// Snapshot is the JSON document written by Backup.
type Snapshot struct {
	CreatedAt time.Time                  `json:"created_at"`
	Regions   []models.Region            `json:"regions"`
	Mappings  []repository.MappingExport `json:"mappings"`
}

// ClearResult reports what Clear removed.
type ClearResult struct {
	BackupPath      string `json:"backup_path"`
	MappingsDeleted int64  `json:"mappings_deleted"`
	RegionsDeleted  int    `json:"regions_deleted"`
}

// Maintenance backs up and clears the region tables.
type Maintenance struct {
	regions  BackupRegionStore
	mappings BackupMappingStore
	dir      string
	archiver Archiver
	newLock  LockFactory
}

func NewMaintenance(regions BackupRegionStore, mappings BackupMappingStore, dir string, archiver Archiver, newLock LockFactory) *Maintenance {
	if dir == "" {
		dir = DefaultBackupDir
	}
	return &Maintenance{regions: regions, mappings: mappings, dir: dir, archiver: archiver, newLock: newLock}
}

// Backup writes every region and mapping to a JSON file and returns its path.
func (m *Maintenance) Backup(ctx context.Context) (string, *Snapshot, error) {
	regions, err := m.regions.List(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list regions: %w", err)
	}
	mappings, err := m.mappings.ListDetailed(ctx)
	if err != nil {
		return "", nil, fmt.Errorf("failed to list mappings: %w", err)
	}

	snap := &Snapshot{CreatedAt: time.Now().UTC(), Regions: regions, Mappings: mappings}
	body, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	path, err := writeFile(m.dir, fmt.Sprintf("dma-backup-%s.json", stamp(snap.CreatedAt)), body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to write backup: %w", err)
	}
	log.Infof("[DMABackup] Backed up %d regions and %d mappings to %s", len(regions), len(mappings), path)

	if m.archiver != nil {
		if _, err := m.archiver.Archive(ctx, s3backup.KindDMABackup, filepath.Base(path), body); err != nil {
			log.Warnf("[DMABackup] Failed to archive %s: %v", path, err)
		}
	}
	return path, snap, nil
}

// Clear backs up, then deletes all mappings and all regions. Region deletes
// cascade to region-scoped subscription limits.
func (m *Maintenance) Clear(ctx context.Context) (*ClearResult, error) {
	ctx, release, err := acquire(ctx, m.newLock, LockRenewInterval)
	if err != nil {
		return nil, err
	}
	defer release()

	path, snap, err := m.Backup(ctx)
	if err != nil {
		return nil, err
	}
	result := &ClearResult{BackupPath: path}

	result.MappingsDeleted, err = m.mappings.DeleteAll(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to delete mappings: %w", err)
	}
	for _, region := range snap.Regions {
		if err := m.regions.Delete(ctx, region.ID); err != nil {
			return result, fmt.Errorf("failed to delete region %d: %w", region.Code, err)
		}
		result.RegionsDeleted++
	}
	log.Infof("[DMABackup] Cleared %d mappings and %d regions", result.MappingsDeleted, result.RegionsDeleted)
	return result, nil
}
