package event

import (
	"prodflow/persistence"

	"github.com/fundwit/go-commons/types"
	"github.com/jinzhu/gorm"
)

var (
	EventPersistCreateFunc = eventPersistCreate
	LoadUnsyncedEventsFunc = loadUnsyncedEvents
	MarkEventSyncedFunc    = markEventSynced
)

func eventPersistCreate(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

func loadUnsyncedEvents(limit int) ([]EventRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	records := []EventRecord{}
	db := persistence.ActiveDataSourceManager.GormDB()
	// zero values are dropped from struct conditions, so spell it out
	if err := db.Where("synced = ?", false).Order("timestamp ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func markEventSynced(id types.ID) error {
	db := persistence.ActiveDataSourceManager.GormDB()
	return db.Model(&EventRecord{}).Where("id = ?", id).Update("synced", true).Error
}
