// Package model holds the GORM models of the persistence layer.
package model

import (
	"time"

	"gorm.io/datatypes"
)

// KeyValueModel mirrors the 'storefront_kv' table. Value holds the JSON document stored under Key.
type KeyValueModel struct {
	Key       string         `gorm:"type:varchar(255);primaryKey"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (KeyValueModel) TableName() string {
	return "storefront_kv"
}
