package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/kuroko-shirai/embedis/v1/client"
)

const (
	idsKey     = "embedding:ids"
	updatedKey = "embedding:updated"
)

type (
	Store interface {
		Get(ctx context.Context, key string) client.Result
		Set(ctx context.Context, key, value string, ttl time.Duration) error
		ZAdd(ctx context.Context, key, member string, score float64) error
		ZScore(ctx context.Context, key, member string) (float64, bool, error)
		SAdd(ctx context.Context, key, value string) error
		SIsMember(ctx context.Context, key, value string) (bool, error)
	}

	Config struct {
		Store Store
		// TTL эмбеддинга, 0 - без ограничения.
		TTL time.Duration
	}

	Service struct {
		Store Store
		TTL   time.Duration
		now   func() time.Time
	}
)

func New(config Config) (Service, error) {
	if config.Store == nil {
		return Service{}, fmt.Errorf("store is required")
	}
	return Service{
		Store: config.Store,
		TTL:   config.TTL,
		now:   time.Now,
	}, nil
}

func embeddingKey(itemID int64) string {
	return fmt.Sprintf("embedding:%d", itemID)
}

// PutEmbedding сохраняет вектор, регистрирует itemID в индексе и
// отмечает время обновления.
func (it *Service) PutEmbedding(ctx context.Context, itemID int64, vector string) error {
	id := strconv.FormatInt(itemID, 10)

	if err := it.Store.Set(ctx, embeddingKey(itemID), vector, it.TTL); err != nil {
		return fmt.Errorf("failed to store embedding %d: %w", itemID, err)
	}
	if err := it.Store.SAdd(ctx, idsKey, id); err != nil {
		return fmt.Errorf("failed to index embedding %d: %w", itemID, err)
	}
	updated := float64(it.now().Unix())
	if err := it.Store.ZAdd(ctx, updatedKey, id, updated); err != nil {
		return fmt.Errorf("failed to mark embedding %d: %w", itemID, err)
	}
	return nil
}

// GetEmbedding возвращает вектор. ok == false, если эмбеддинга нет.
func (it *Service) GetEmbedding(ctx context.Context, itemID int64) (string, bool, error) {
	result := it.Store.Get(ctx, embeddingKey(itemID))
	if result.IsFailed() {
		return "", false, result.Err
	}
	return result.Value, result.IsFound(), nil
}

func (it *Service) Known(ctx context.Context, itemID int64) (bool, error) {
	return it.Store.SIsMember(ctx, idsKey, strconv.FormatInt(itemID, 10))
}

// UpdatedAt возвращает время последней записи эмбеддинга.
func (it *Service) UpdatedAt(ctx context.Context, itemID int64) (time.Time, bool, error) {
	score, ok, err := it.Store.ZScore(ctx, updatedKey, strconv.FormatInt(itemID, 10))
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return time.Unix(int64(score), 0), true, nil
}
