package postgres

import (
	"context"

	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/infra/persistence/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// kvStore implements repository.KeyValueStore over the storefront_kv table.
type kvStore struct {
	db *gorm.DB
}

// NewKeyValueStore migrates the storefront_kv table and returns a store over it.
func NewKeyValueStore(ctx context.Context, db *gorm.DB) (repository.KeyValueStore, error) {
	if err := db.WithContext(ctx).AutoMigrate(&model.KeyValueModel{}); err != nil {
		return nil, errors.Wrap(err, "failed to migrate storefront_kv")
	}

	return &kvStore{db: db}, nil
}

func (s *kvStore) Get(ctx context.Context, key string) ([]byte, error) {
	var row model.KeyValueModel
	err := s.db.WithContext(ctx).Where("key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrKeyNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get %s", key)
	}

	return []byte(row.Value), nil
}

// Set inserts the value or replaces the existing one.
func (s *kvStore) Set(ctx context.Context, key string, value []byte) error {
	row := &model.KeyValueModel{
		Key:   key,
		Value: datatypes.JSON(value),
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return errors.Wrapf(err, "failed to set %s", key)
	}

	return nil
}

func (s *kvStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("key = ?", key).Delete(&model.KeyValueModel{}).Error
	if err != nil {
		return errors.Wrapf(err, "failed to delete %s", key)
	}

	return nil
}
