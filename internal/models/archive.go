// Package models defines the GORM models for the Switchboard archive.
package models

import "time"

// ArchivedMessage is a relay message persisted after its traffic completed:
// an operator reply the widget confirmed, or a visitor message evicted by
// the retention sweep. Live relay state is never stored here.
type ArchivedMessage struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	RelayID     uint64 `gorm:"not null;index"`
	SessionKey  string `gorm:"size:512;index"`
	Destination string `gorm:"size:64"`
	Direction   string `gorm:"size:32;not null"`
	Text        string `gorm:"type:text"`
	TransportID string `gorm:"size:64"`
	RelayedAt   time.Time
	ArchivedAt  time.Time
}
