package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/sujalbistaa/pinboard/internal/board"
)

// Record is one visitor's encoded board state.
type Record struct {
	ID        string    `gorm:"primarykey;size:64"`
	Data      []byte    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (Record) TableName() string { return "board_sessions" }

// GormStore keeps state in a SQL table.
type GormStore struct {
	db  *gorm.DB
	ttl time.Duration
	now func() time.Time
}

// OpenSQLite opens (and migrates) a SQLite database at path.
func OpenSQLite(path string, ttl time.Duration) (*GormStore, error) {
	return openGorm(sqlite.Open(path), ttl)
}

// OpenPostgres opens (and migrates) a PostgreSQL database.
func OpenPostgres(dsn string, ttl time.Duration) (*GormStore, error) {
	return openGorm(postgres.Open(dsn), ttl)
}

func openGorm(dialector gorm.Dialector, ttl time.Duration) (*GormStore, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)

	return NewGormStore(db, ttl)
}

// NewGormStore wraps an open database and migrates the sessions table.
func NewGormStore(db *gorm.DB, ttl time.Duration) (*GormStore, error) {
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrate sessions: %w", err)
	}
	return &GormStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *GormStore) Load(ctx context.Context, id string) (*board.Board, error) {
	var rec Record
	err := s.db.WithContext(ctx).
		Where("id = ? AND expires_at > ?", id, s.now().UTC()).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return decode(rec.Data)
}

func (s *GormStore) Save(ctx context.Context, id string, b *board.Board) error {
	data, err := encode(b)
	if err != nil {
		return err
	}
	now := s.now().UTC()
	rec := Record{ID: id, Data: data, ExpiresAt: now.Add(s.ttl), UpdatedAt: now}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&Record{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Sweep deletes expired rows.
func (s *GormStore) Sweep(ctx context.Context) (int, error) {
	res := s.db.WithContext(ctx).Where("expires_at <= ?", s.now().UTC()).Delete(&Record{})
	if res.Error != nil {
		return 0, fmt.Errorf("sweep sessions: %w", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
