package indices

import (
	"context"
	"fmt"
	"sync"

	"prodflow/bizerror"
	"prodflow/domain"
	"prodflow/domain/flow"
	"prodflow/event"
	"prodflow/session"

	"github.com/sirupsen/logrus"
)

var (
	WorkflowIndexEventHandlerName = "workflowIndexer"

	indexRobot = &session.Session{
		Identity: session.Identity{ID: 10, Name: "index-robot"},
		Context:  context.Background(),
	}

	lock    sync.Mutex
	running bool

	IndicesFullSyncFunc    = IndicesFullSync
	ScheduleNewSyncRunFunc = ScheduleNewSyncRun
)

// ScheduleNewSyncRun launches at most one full sync at a time. The second
// return is false when a run is already in flight.
func ScheduleNewSyncRun(s *session.Session) (bool, error) {
	if s == nil || s.Identity.ID == 0 {
		return false, bizerror.ErrForbidden
	}

	lock.Lock()
	if running {
		lock.Unlock()
		return false, nil
	}
	running = true
	lock.Unlock()

	waitRunning := sync.WaitGroup{}
	waitRunning.Add(1)
	go func() {
		waitRunning.Done()
		defer func() {
			lock.Lock()
			running = false
			lock.Unlock()
		}()
		IndicesFullSyncFunc()
	}()
	waitRunning.Wait()
	return true, nil
}

var (
	SyncBatchSize = 500
)

func IndicesFullSync() (err error) {
	defer func() {
		if ret := recover(); ret != nil {
			e, ok := ret.(error)
			if ok {
				err = e
			} else {
				err = fmt.Errorf("error on indices full sync: %v", ret)
			}
		}
	}()

	page := 1
	for {
		workflows, err := flow.LoadWorkflowsFunc(page, SyncBatchSize)
		if err != nil {
			logrus.Warnf("indices full sync: error on retrieve workflows(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
			page++
			continue
		}

		if len(workflows) == 0 {
			logrus.Infof("indices full sync: there are no more workflows to index")
			return nil // loop exit
		}

		if err := IndexWorkflows(workflows); err != nil {
			logrus.Warnf("indices full sync: error on index workflows(page = %d, pageSize = %d): %v", page, SyncBatchSize, err)
		}
		page++
	}
}

// IndexWorkflowEventHandle keeps the search index in step with workflow
// events. Returns nil for events of other sources.
func IndexWorkflowEventHandle(e *event.EventRecord) *event.EventHandleResult {
	if e.SourceType != event.SourceTypeProduction {
		return nil
	}

	workflow, err := flow.DetailWorkflowFunc(e.Event.SourceId)
	if err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("detail workflow when index production %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName,
		}
	}
	if err := IndexWorkflows([]domain.ProductionWorkflow{*workflow}); err != nil {
		return &event.EventHandleResult{
			Message:           fmt.Sprintf("index workflow of production %d, %v", e.Event.SourceId, err),
			HandlerIdentifier: WorkflowIndexEventHandlerName,
		}
	}
	return &event.EventHandleResult{Success: true, HandlerIdentifier: WorkflowIndexEventHandlerName}
}
