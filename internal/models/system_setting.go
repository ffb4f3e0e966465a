package models

import (
	"encoding/json"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// SwitchKeyPrefix marks settings that hold a boolean feature switch.
const SwitchKeyPrefix = "feature."

// SystemSetting is a runtime switch or value kept in the database so the
// snapshot job, catalog import and trade rollback can be toggled without a
// restart.
type SystemSetting struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"`

	Key string `gorm:"type:varchar(120);not null;uniqueIndex"`

	// true/false for switches, any JSON document otherwise.
	Value datatypes.JSON `gorm:"type:jsonb;not null"`

	Description string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;autoUpdateTime;index"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

func (s SystemSetting) IsSwitch() bool {
	return strings.HasPrefix(s.Key, SwitchKeyPrefix)
}

// Enabled decodes a switch value. The second result is false when the stored
// value is not a JSON boolean.
func (s SystemSetting) Enabled() (bool, bool) {
	var v *bool
	if err := json.Unmarshal(s.Value, &v); err != nil || v == nil {
		return false, false
	}
	return *v, true
}
