package leaderboard

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type scoreRecord struct {
	ID     uint      `gorm:"primaryKey"`
	Name   string    `gorm:"size:64;not null;index"`
	Score  int       `gorm:"not null;index"`
	Lines  int       `gorm:"not null"`
	RoomID string    `gorm:"size:128"`
	Date   time.Time `gorm:"not null"`
}

func (scoreRecord) TableName() string { return "scores" }

func (r scoreRecord) entry() Entry {
	return Entry{Name: r.Name, Score: r.Score, Lines: r.Lines, RoomID: r.RoomID, Date: r.Date.UTC()}
}

// PostgresStore ranks scores with ORDER BY score DESC, id ASC.
type PostgresStore struct {
	db *gorm.DB
}

type PostgresConfig struct {
	Host     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.SSLMode)
}

const (
	pgMaxRetries    = 3
	pgRetryInterval = 2 * time.Second
)

// OpenPostgres connects with a few retries and migrates the scores table.
func OpenPostgres(cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	var db *gorm.DB
	var err error
	for i := 0; i <= pgMaxRetries; i++ {
		db, err = gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
		if err == nil {
			break
		}
		logger.Warn("postgres connect failed, retrying", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(pgRetryInterval)
	}
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return NewPostgresStore(db)
}

func NewPostgresStore(db *gorm.DB) (*PostgresStore, error) {
	if err := db.AutoMigrate(&scoreRecord{}); err != nil {
		return nil, fmt.Errorf("migrate scores: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	rec := scoreRecord{Name: e.Name, Score: e.Score, Lines: e.Lines, RoomID: e.RoomID, Date: e.Date}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]Entry, error) {
	return s.query(s.db.WithContext(ctx), limit)
}

func (s *PostgresStore) TopForName(ctx context.Context, name string, limit int) ([]Entry, error) {
	return s.query(s.db.WithContext(ctx).Where("name = ?", name), limit)
}

func (s *PostgresStore) query(tx *gorm.DB, limit int) ([]Entry, error) {
	if limit <= 0 {
		return []Entry{}, nil
	}
	var recs []scoreRecord
	err := tx.Order("score DESC").Order("id ASC").Limit(limit).Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	out := make([]Entry, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.entry())
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
