package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-client/pkg/db/models"
	"github.com/angelmondragon/storefront-client/pkg/kv"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ kv.Store = (*Client)(nil)

// Migrate creates the client_state table when missing.
func (c *Client) Migrate(ctx context.Context) error {
	if err := c.conn.WithContext(ctx).AutoMigrate(&models.ClientState{}); err != nil {
		return fmt.Errorf("migrating client_state: %w", err)
	}
	return nil
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	var row models.ClientState
	err := c.conn.WithContext(ctx).
		Where("state_key = ?", key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", kv.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("loading state %q: %w", key, err)
	}
	return row.Value, nil
}

// Set upserts key so the last write wins across processes sharing the database.
func (c *Client) Set(ctx context.Context, key, value string) error {
	row := models.ClientState{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	err := c.conn.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "state_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("saving state %q: %w", key, err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := c.conn.WithContext(ctx).
		Where("state_key IN ?", keys).
		Delete(&models.ClientState{}).Error
	if err != nil {
		return fmt.Errorf("deleting state: %w", err)
	}
	return nil
}
