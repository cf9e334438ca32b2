package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/storefront/internal/models"
	"github.com/redis/go-redis/v9"
)

const pendingRegistrationPrefix = "registration:pending:"

// PendingRegistrationRepository keeps unconfirmed sign-ups in Redis. Entries
// expire with the OTP so abandoned registrations need no sweeper.
type PendingRegistrationRepository struct {
	client redis.Cmdable
}

func NewPendingRegistrationRepository(client redis.Cmdable) *PendingRegistrationRepository {
	return &PendingRegistrationRepository{client: client}
}

func pendingKey(email string) string {
	return pendingRegistrationPrefix + models.NormalizeEmail(email)
}

// Save stores p under its email, replacing any earlier pending sign-up
func (r *PendingRegistrationRepository) Save(ctx context.Context, p *models.PendingRegistration, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("pending registration ttl must be positive")
	}
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pending registration: %w", err)
	}
	if err := r.client.Set(ctx, pendingKey(p.Email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store pending registration: %w", err)
	}
	return nil
}

// Get returns the pending sign-up for email, or ErrNotFound once it has
// expired or never existed.
func (r *PendingRegistrationRepository) Get(ctx context.Context, email string) (*models.PendingRegistration, error) {
	raw, err := r.client.Get(ctx, pendingKey(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load pending registration: %w", err)
	}

	var p models.PendingRegistration
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode pending registration: %w", err)
	}
	return &p, nil
}

func (r *PendingRegistrationRepository) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, pendingKey(email)).Err(); err != nil {
		return fmt.Errorf("failed to delete pending registration: %w", err)
	}
	return nil
}
