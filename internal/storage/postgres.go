package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Slot is one persisted key in the persisted_slots table.
type Slot struct {
	Key       string    `gorm:"primaryKey;size:255"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name
func (Slot) TableName() string {
	return "persisted_slots"
}

// Postgres stores slots in a single table keyed by slot key.
type Postgres struct {
	db *gorm.DB
}

// NewPostgres creates a backend over db.
func NewPostgres(db *gorm.DB) *Postgres {
	return &Postgres{db: db}
}

// AutoMigrate creates the slot table.
func (p *Postgres) AutoMigrate() error {
	return p.db.AutoMigrate(&Slot{})
}

func (p *Postgres) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var slot Slot
	err := p.db.WithContext(ctx).Where("key = ?", key).First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: postgres get %s: %v", ErrUnavailable, key, err)
	}
	return []byte(slot.Value), true, nil
}

func (p *Postgres) Set(ctx context.Context, key string, value []byte) error {
	slot := Slot{Key: key, Value: string(value), UpdatedAt: time.Now()}
	err := p.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("%w: postgres set %s: %v", ErrUnavailable, key, err)
	}
	return nil
}

func (p *Postgres) Delete(ctx context.Context, key string) error {
	if err := p.db.WithContext(ctx).Delete(&Slot{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("%w: postgres delete %s: %v", ErrUnavailable, key, err)
	}
	return nil
}
