package event

import (
	"github.com/sirupsen/logrus"
)

/*
return nil if not support
*/
type EventHandler func(e *EventRecord) *EventHandleResult

type EventHandleResult struct {
	Success           bool
	Message           string
	HandlerIdentifier string
}

var EventHandlers []EventHandler

var InvokeHandlersFunc = invokeHandlers

func invokeHandlers(record *EventRecord) []EventHandleResult {
	results := []EventHandleResult{}
	for _, handler := range EventHandlers {
		logrus.Debug("pre handle event ", record.Event)
		r := handler(record)

		if r == nil {
			continue
		}

		results = append(results, *r)

		if r.Success {
			logrus.Info("post handle event. ", r)
		} else {
			logrus.Error("post handler error. ", r)
		}
	}
	return results
}

// DispatchEvent drives one record through all registered handlers and marks
// it synced when none of them failed. Invoked after the owning transaction
// committed, and again by the sync runner for records left unsynced.
func DispatchEvent(record *EventRecord) {
	if record == nil {
		return
	}
	results := InvokeHandlersFunc(record)
	for _, r := range results {
		if !r.Success {
			return
		}
	}
	if err := MarkEventSyncedFunc(record.ID); err != nil {
		logrus.Errorf("failed to mark event %d synced: %v", record.ID, err)
	}
}
