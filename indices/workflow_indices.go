package indices

import (
	"fmt"

	"prodflow/client/es"
	"prodflow/domain"

	"github.com/fundwit/go-commons/types"
	"github.com/sirupsen/logrus"
)

var (
	WorkflowIndexName = "production-workflows"
)

type WorkflowDocument struct {
	domain.ProductionWorkflow
}

type BatchActionError map[types.ID]error

func (e BatchActionError) Error() string {
	return fmt.Sprintf("%v", map[types.ID]error(e))
}

func IndexWorkflows(workflows []domain.ProductionWorkflow) error {
	docs := make([]WorkflowDocument, 0, len(workflows))
	for _, workflow := range workflows {
		docs = append(docs, WorkflowDocument{ProductionWorkflow: workflow})
	}

	if err := saveWorkflowDocuments(docs); err != nil {
		return err
	}
	return nil
}

func saveWorkflowDocuments(docs []WorkflowDocument) BatchActionError {
	errs := BatchActionError{}

	for _, doc := range docs {
		if err := es.IndexFunc(WorkflowIndexName, doc.ID, doc, indexRobot); err != nil {
			errs[doc.ID] = err
			logrus.Warnf("index workflow %d of production %d: %s\n", doc.ID, doc.ProductionID, err)
		} else {
			logrus.Infof("index workflow %d of production %d successfully\n", doc.ID, doc.ProductionID)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}
