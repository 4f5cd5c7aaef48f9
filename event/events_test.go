package event_test

import (
	"errors"
	"testing"
	"time"

	"prodflow/event"
	"prodflow/session"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
	. "github.com/onsi/gomega"
)

func TestCreateEvent(t *testing.T) {
	RegisterTestingT(t)

	t.Run("should return error when failed to persist event", func(t *testing.T) {
		testErr := errors.New("test error")
		event.EventPersistCreateFunc = func(record *event.EventRecord, tx *gorm.DB) error {
			return testErr
		}
		var tx = &gorm.DB{Value: 10000}
		ret, err := event.CreateEvent(event.SourceTypeProduction, 1234, "1234", event.CategoryStatusChanged,
			event.Payload{"from": "PLANNED", "to": "IN_PROGRESS"},
			&session.Identity{ID: 333, Name: "user333"},
			types.TimestampOfDate(2026, 8, 1, 12, 12, 12, 0, time.Local),
			tx,
		)
		Expect(ret).To(BeNil())
		Expect(err).To(Equal(testErr))
	})

	t.Run("should be able to create events", func(t *testing.T) {
		var ev event.EventRecord
		var db *gorm.DB
		event.EventPersistCreateFunc = func(record *event.EventRecord, tx *gorm.DB) error {
			ev = *record
			db = tx
			return nil
		}

		var tx = &gorm.DB{Value: 10000}
		ret, err := event.CreateEvent(event.SourceTypeProduction, 1234, "1234", event.CategoryStatusChanged,
			event.Payload{"from": "PLANNED", "to": "IN_PROGRESS"},
			&session.Identity{ID: 333, Name: "user333"},
			types.TimestampOfDate(2026, 8, 1, 12, 12, 12, 0, time.Local),
			tx,
		)
		Expect(err).To(BeNil())
		Expect(ret.ID).ToNot(BeZero())

		expectEvent := event.EventRecord{
			ID: ret.ID,
			Event: event.Event{
				SourceType: event.SourceTypeProduction,
				SourceId:   1234,
				SourceDesc: "1234",

				EventCategory: event.CategoryStatusChanged,
				Payload:       event.Payload{"from": "PLANNED", "to": "IN_PROGRESS"},

				CreatorId:   333,
				CreatorName: "user333",
			},
			Timestamp: types.TimestampOfDate(2026, 8, 1, 12, 12, 12, 0, time.Local),
			Synced:    false,
		}

		Expect(*ret).To(Equal(expectEvent))
		Expect(ev).To(Equal(expectEvent))

		Expect(db).To(Equal(tx))
	})
}
