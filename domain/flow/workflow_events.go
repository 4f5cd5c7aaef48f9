package flow

import (
	"prodflow/domain"
	"prodflow/event"
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

func CreateProductionCreatedEvent(w *domain.ProductionWorkflow, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(event.SourceTypeProduction, w.ProductionID, w.ProductionID.String(), event.CategoryProductionCreated,
		event.Payload{"productionId": w.ProductionID.String(), "status": string(w.Status)},
		identity, timestamp, db)
}

func CreateStatusChangedEvent(w *domain.ProductionWorkflow, from, to, reason string, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(event.SourceTypeProduction, w.ProductionID, w.ProductionID.String(), event.CategoryStatusChanged,
		event.Payload{"productionId": w.ProductionID.String(), "from": from, "to": to, "by": identity.Name, "reason": reason},
		identity, timestamp, db)
}

func CreateAssignedEvent(w *domain.ProductionWorkflow, previousAssignee, newAssignee string, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(event.SourceTypeProduction, w.ProductionID, w.ProductionID.String(), event.CategoryAssignmentChanged,
		event.Payload{"productionId": w.ProductionID.String(), "previousAssignee": previousAssignee, "newAssignee": newAssignee, "by": identity.Name},
		identity, timestamp, db)
}

func CreateQualityCheckFailedEvent(w *domain.ProductionWorkflow, notes, checkerID string, identity *session.Identity, timestamp types.Timestamp, db *gorm.DB) (*event.EventRecord, error) {
	return event.CreateEvent(event.SourceTypeProduction, w.ProductionID, w.ProductionID.String(), event.CategoryQualityCheckFailed,
		event.Payload{"productionId": w.ProductionID.String(), "notes": notes, "checkerId": checkerID},
		identity, timestamp, db)
}
