package jobqueue

import (
	"context"
	"sync"
	"time"

	"github.com/attorneymap/attorneymap/app/models"
	"github.com/gofiber/fiber/v2/log"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue        *Queue
	scanInterval time.Duration
	scanTicker   *time.Ticker
	stopCh       chan struct{}
	wg           sync.WaitGroup
	mu           sync.Mutex
	running      bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 1
		var scanInterval time.Duration
		if settings := getAppSettings(); settings != nil {
			workerCount = settings.GetJobQueueWorkerCount()
			scanInterval = settings.GetLimitScanInterval()
		}

		globalManager = &Manager{
			queue:        NewQueue(workerCount),
			scanInterval: scanInterval,
			stopCh:       make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	m.queue.Start()

	if m.scanInterval > 0 {
		m.scanTicker = time.NewTicker(m.scanInterval)
		m.wg.Add(1)
		go m.scanScheduler(m.scanTicker, m.stopCh)
	}

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.scanTicker != nil {
		m.scanTicker.Stop()
	}

	close(m.stopCh)
	m.running = false
	m.wg.Wait()

	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// scanScheduler enqueues a limit scan every tick
func (m *Manager) scanScheduler(ticker *time.Ticker, stopCh chan struct{}) {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Scheduled limit scan every %s", m.scanInterval)

	for {
		select {
		case <-stopCh:
			log.Info("[JobQueue Manager] Scan scheduler stopping")
			return
		case <-ticker.C:
			if _, err := m.EnqueueLimitScan("schedule"); err != nil {
				log.Errorf("[JobQueue Manager] Failed to enqueue scheduled limit scan: %v", err)
			}
		}
	}
}

// EnqueueLimitScan queues a background limit scan
func (m *Manager) EnqueueLimitScan(trigger string) (*Job, error) {
	return m.queue.EnqueueLimitScan(trigger)
}

// LatestScan returns the most recent background scan, or nil if none is stored
func (m *Manager) LatestScan(ctx context.Context) (*StoredScan, error) {
	return m.queue.LatestScan(ctx)
}

// ScanProgress returns the pairs finished by the current or last background scan
func (m *Manager) ScanProgress(ctx context.Context) (*ScanProgress, error) {
	return m.queue.ScanProgress(ctx)
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// getAppSettings safely returns the current app settings
func getAppSettings() *models.AppSettings {
	return models.GetAppSettings()
}
