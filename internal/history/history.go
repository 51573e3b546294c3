package history

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// RoundResult is one decided round. Rooms themselves are never restored from
// this table.
type RoundResult struct {
	ID         uint   `gorm:"primaryKey"`
	RoomID     string `gorm:"size:64;index"`
	Round      int
	Word       string `gorm:"size:20"`
	Outcome    string `gorm:"size:8"`
	FailCount  int
	Setter     string    `gorm:"size:32"`
	Guesser    string    `gorm:"size:32"`
	FinishedAt time.Time `gorm:"index"`
}

type Recorder interface {
	Record(ctx context.Context, r RoundResult) error
	Recent(ctx context.Context, roomID string, limit int) ([]RoundResult, error)
	Close() error
}

type nopRecorder struct{}

func Nop() Recorder { return nopRecorder{} }

func (nopRecorder) Record(context.Context, RoundResult) error { return nil }
func (nopRecorder) Close() error                              { return nil }

func (nopRecorder) Recent(context.Context, string, int) ([]RoundResult, error) {
	return []RoundResult{}, nil
}

type GormRecorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// OpenPostgres connects to dsn and migrates the results table.
func OpenPostgres(dsn string, log *zap.Logger) (*GormRecorder, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if err := db.AutoMigrate(&RoundResult{}); err != nil {
		return nil, fmt.Errorf("migrate results db: %w", err)
	}
	return NewGormRecorder(db, log), nil
}

func NewGormRecorder(db *gorm.DB, log *zap.Logger) *GormRecorder {
	if log == nil {
		log = zap.NewNop()
	}
	return &GormRecorder{db: db, log: log}
}

func (g *GormRecorder) Record(ctx context.Context, r RoundResult) error {
	if err := g.db.WithContext(ctx).Create(&r).Error; err != nil {
		return fmt.Errorf("record round %s/%d: %w", r.RoomID, r.Round, err)
	}
	g.log.Debug("round recorded",
		zap.String("room", r.RoomID),
		zap.Int("round", r.Round),
		zap.String("outcome", r.Outcome))
	return nil
}

// Recent returns the latest results for roomID, newest first.
func (g *GormRecorder) Recent(ctx context.Context, roomID string, limit int) ([]RoundResult, error) {
	var out []RoundResult
	err := g.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("finished_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func (g *GormRecorder) Close() error {
	sqlDB, err := g.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
