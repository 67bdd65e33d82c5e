package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/statusboard/internal/realtime"
	"github.com/wonny/statusboard/internal/store"
	"github.com/wonny/statusboard/pkg/logger"
)

// RefreshJob re-fetches the sheet on schedule so the cache stays warm and
// open dashboards hear about new data without polling.
type RefreshJob struct {
	store    *store.Store
	hub      *realtime.Hub
	schedule string
	logger   *logger.Logger
}

// NewRefreshJob creates the periodic refresh job
func NewRefreshJob(st *store.Store, hub *realtime.Hub, schedule string, log *logger.Logger) *RefreshJob {
	return &RefreshJob{
		store:    st,
		hub:      hub,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *RefreshJob) Name() string {
	return "snapshot_refresh"
}

// Schedule returns the configured cron expression
func (j *RefreshJob) Schedule() string {
	return j.schedule
}

// Run refreshes the snapshot and notifies connected dashboards
func (j *RefreshJob) Run(ctx context.Context) error {
	snapshot, err := j.store.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("scheduled refresh: %w", err)
	}

	if j.hub != nil {
		j.hub.Broadcast(realtime.Event{
			Type:      realtime.EventSnapshotRefreshed,
			FetchedAt: snapshot.FetchedAt,
			Rows:      len(snapshot.Rows),
		})
	}

	j.logger.WithFields(map[string]interface{}{
		"rows":    len(snapshot.Rows),
		"clients": clientCount(j.hub),
	}).Debug("Scheduled refresh completed")

	return nil
}

func clientCount(hub *realtime.Hub) int {
	if hub == nil {
		return 0
	}
	return hub.ClientCount()
}
