package search

import (
	"encoding/json"
	"fmt"
	"strings"

	"prodflow/client/es"
	"prodflow/domain"
	"prodflow/domain/status"
	"prodflow/indices"
	"prodflow/session"
)

var (
	SearchWorkflowsFunc = SearchWorkflows
)

// SearchWorkflows queries the workflow search index. The index may lag the
// database by one event dispatch; callers needing read-your-writes go
// through the engine instead.
func SearchWorkflows(q domain.ProductionWorkflowQuery, s *session.Session) ([]domain.ProductionWorkflow, error) {
	/*
		{
			"query": {
				"bool": {
					"filter": [
						{"term": {"productionId": 111}},
						{"term": {"status": "IN_PROGRESS"}},
						{"term": {"assignedTo": "worker-1"}},
						{"bool": {"must_not": {"terms": {"status": ["COMPLETED", "CANCELLED"]}}}}
					]
				}
			},
			"size": 10000,
			"sort": [{"createTime": {"order": "asc"}}]
		}
	*/
	filters := make([]es.H, 0, 5)
	if q.ProductionID != 0 {
		filters = append(filters, es.H{"term": es.H{"productionId": q.ProductionID}})
	}
	if q.Status != "" {
		filters = append(filters, es.H{"term": es.H{"status": q.Status}})
	}
	if q.AssignedTo != "" {
		filters = append(filters, es.H{"term": es.H{"assignedTo": q.AssignedTo}})
	}
	if q.Priority != "" {
		filters = append(filters, es.H{"term": es.H{"priority": q.Priority}})
	}
	if q.ActiveOnly {
		filters = append(filters, es.H{"bool": es.H{"must_not": es.H{"terms": es.H{
			"status": []status.Status{status.Completed, status.Cancelled}}}}})
	}

	sorts := make([]es.H, 0, 1)
	sorts = append(sorts, es.H{"createTime": es.H{"order": "asc"}})

	root := es.H{"bool": es.H{"filter": filters}}
	r, err := es.SearchFunc(indices.WorkflowIndexName, es.H{"size": 10000, "query": root, "sort": sorts}, s)
	if err != nil {
		return nil, err
	}

	workflows := make([]domain.ProductionWorkflow, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		w := domain.ProductionWorkflow{}
		if err := json.NewDecoder(strings.NewReader(string(hit.Source))).Decode(&w); err != nil {
			return nil, fmt.Errorf(string(hit.Source))
		}
		workflows = append(workflows, w)
	}

	return workflows, nil
}
