package event

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/fundwit/go-commons/types"
)

const SourceTypeProduction = "PRODUCTION"

type EventCategory string

const (
	CategoryProductionCreated  EventCategory = "PRODUCTION_CREATED"
	CategoryStatusChanged      EventCategory = "PRODUCTION_STATUS_CHANGED"
	CategoryAssignmentChanged  EventCategory = "PRODUCTION_ASSIGNED"
	CategoryQualityCheckFailed EventCategory = "QUALITY_CHECK_FAILED"
)

type Event struct {
	SourceId   types.ID `json:"sourceId"`
	SourceType string   `json:"sourceType"`
	SourceDesc string   `json:"sourceDesc"`

	CreatorId   types.ID `json:"creatorId"`
	CreatorName string   `json:"creatorName"`

	EventCategory EventCategory `json:"eventCategory"`
	Payload       Payload       `json:"payload" sql:"type:TEXT"`
}

// EventRecord is the persisted form of an Event. Rows are written inside
// the same transaction as the mutation they describe; Synced marks whether
// every registered handler has observed the record.
type EventRecord struct {
	ID types.ID `json:"id" gorm:"primary_key"`

	Event

	Timestamp types.Timestamp `json:"timestamp" sql:"type:DATETIME(6)"`
	Synced    bool            `json:"synced"`
}

func (r *EventRecord) TableName() string {
	return "events"
}

type Payload map[string]string

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return "{}", nil
	}
	jsonBytes, err := json.Marshal(&p)
	if err != nil {
		return nil, err
	}
	return string(jsonBytes), nil
}

func (p *Payload) Scan(v interface{}) error {
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
	return json.Unmarshal([]byte(jsonString), p)
}
