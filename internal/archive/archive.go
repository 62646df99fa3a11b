// Package archive persists completed relay traffic to a SQL database.
package archive

import (
	"fmt"
	"time"

	"github.com/zulandar/switchboard/internal/models"
	"github.com/zulandar/switchboard/internal/relay"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store writes archived messages through a GORM connection. It implements
// relay.Archiver.
type Store struct {
	db *gorm.DB
}

// Open connects to the archive database and runs migrations. Supported
// drivers are "sqlite" (DSN is a file path) and "mysql" (standard DSN).
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("archive: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("archive: connect (%s): %w", driver, err)
	}
	return NewStore(db)
}

// NewStore wraps an existing GORM connection and runs migrations.
func NewStore(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("archive: db is required")
	}
	if err := db.AutoMigrate(&models.ArchivedMessage{}); err != nil {
		return nil, fmt.Errorf("archive: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Archive persists one completed relay message.
func (s *Store) Archive(msg relay.Message) error {
	rec := models.ArchivedMessage{
		RelayID:     msg.ID,
		SessionKey:  msg.SessionKey,
		Destination: msg.Destination,
		Direction:   string(msg.Direction),
		Text:        msg.Text,
		TransportID: msg.TransportID,
		RelayedAt:   msg.Timestamp,
		ArchivedAt:  time.Now(),
	}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("archive: store message %d: %w", msg.ID, err)
	}
	return nil
}

// Count returns the number of archived messages, optionally scoped to a
// session key.
func (s *Store) Count(sessionKey string) (int64, error) {
	var n int64
	q := s.db.Model(&models.ArchivedMessage{})
	if sessionKey != "" {
		q = q.Where("session_key = ?", sessionKey)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("archive: count: %w", err)
	}
	return n, nil
}
