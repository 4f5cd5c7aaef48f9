package event

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	syncInterval  = 10 * time.Second
	syncBatchSize = 100
)

// dispatch throughput cap, so a large backlog can not starve request traffic
var syncLimiter = rate.NewLimiter(rate.Limit(50), 50)

// SyncRoutine periodically re-drives events whose handlers have not all
// succeeded yet. Delivery is at-least-once: handlers must tolerate replays.
func SyncRoutine(ctx context.Context) {
	ticker := time.NewTicker(syncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("event sync routine exiting")
			return
		case <-ticker.C:
			syncOnce(ctx)
		}
	}
}

func syncOnce(ctx context.Context) {
	records, err := LoadUnsyncedEventsFunc(syncBatchSize)
	if err != nil {
		logrus.Errorf("failed to load unsynced events: %v", err)
		return
	}
	for i := range records {
		if err := syncLimiter.Wait(ctx); err != nil {
			return
		}
		DispatchEvent(&records[i])
	}
}
