package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"prodflow/domain/status"

	"github.com/fundwit/go-commons/types"
)

type TransitionEventType string

const (
	EventStatusChanged         TransitionEventType = "STATUS_CHANGED"
	EventAssignmentChanged     TransitionEventType = "ASSIGNMENT_CHANGED"
	EventQualityCheckCompleted TransitionEventType = "QUALITY_CHECK_COMPLETED"
)

// WorkflowTransition is the append-only audit record of one workflow
// mutation. Never updated or deleted once written.
type WorkflowTransition struct {
	ID           types.ID `json:"id" gorm:"primary_key"`
	WorkflowID   types.ID `json:"workflowId" gorm:"index:idx_workflow"`
	ProductionID types.ID `json:"productionId"`

	FromStatus status.Status       `json:"fromStatus"`
	ToStatus   status.Status       `json:"toStatus"`
	EventType  TransitionEventType `json:"eventType"`

	TransitionTime types.Timestamp `json:"transitionTime" gorm:"index:idx_transition_time" sql:"type:DATETIME(6)"`
	TriggeredBy    string          `json:"triggeredBy"`

	Reason string `json:"reason"`
	Notes  string `json:"notes"`

	// minutes elapsed since the previous transition of the same workflow,
	// or since workflow creation for the first row
	DurationInMinutes float64 `json:"durationInMinutes"`

	Metadata TransitionMetadata `json:"metadata" sql:"type:TEXT"`
}

func (t *WorkflowTransition) TableName() string {
	return "workflow_transitions"
}

type TransitionMetadata map[string]string

func (m TransitionMetadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	jsonBytes, err := json.Marshal(&m)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (m *TransitionMetadata) Scan(v interface{}) error {
	jsonString, ok := v.(string)
	if !ok {
		jsonBytes, ok := v.([]byte)
		if !ok {
			return fmt.Errorf("type is neither string nor []byte: %T %v", v, v)
		}
		jsonString = string(jsonBytes)
	}
	if jsonString == "" {
		return nil
	}
	return json.Unmarshal([]byte(jsonString), m)
}

type TransitionQuery struct {
	ProductionID types.ID `form:"productionId" validate:"required"`
}
