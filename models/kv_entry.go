package models

import "time"

// KVEntry stores one named snapshot blob.
type KVEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     []byte    `gorm:"type:longblob;not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name used by the snapshot store.
func (KVEntry) TableName() string { return "kv_entries" }
