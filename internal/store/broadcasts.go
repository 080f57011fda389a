package store

import (
	"context"
	"fmt"
	"time"
)

// Broadcast is a BroadcastEmail row.
type Broadcast struct {
	ID             string
	EmailAccountID string
	Subject        string
	Body           string
	Recipients     []string
	Status         string
	ScheduledFor   time.Time
}

// EmailAccount is the sending account a broadcast goes out through.
type EmailAccount struct {
	ID          string
	Email       string
	Provider    string
	IsConnected bool
}

// DueBroadcasts returns SCHEDULED broadcasts whose send time has arrived,
// oldest first.
func (s *Store) DueBroadcasts(ctx context.Context) ([]Broadcast, error) {
	rows, err := s.db.Query(ctx, `
		SELECT "id", "emailAccountId", "subject", "body", "recipients", "status", "scheduledFor"
		FROM "BroadcastEmail"
		WHERE "status" = 'SCHEDULED'
		AND "scheduledFor" <= NOW()
		ORDER BY "scheduledFor" ASC`)
	if err != nil {
		return nil, fmt.Errorf("due broadcasts: %w", err)
	}
	defer rows.Close()

	var broadcasts []Broadcast
	for rows.Next() {
		var b Broadcast
		if err := rows.Scan(&b.ID, &b.EmailAccountID, &b.Subject, &b.Body, &b.Recipients, &b.Status, &b.ScheduledFor); err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		broadcasts = append(broadcasts, b)
	}
	return broadcasts, rows.Err()
}

// GetEmailAccount retrieves a sending account by ID.
func (s *Store) GetEmailAccount(ctx context.Context, id string) (*EmailAccount, error) {
	var a EmailAccount
	err := s.db.QueryRow(ctx, `
		SELECT "id", "email", "provider", "isConnected"
		FROM "EmailAccount" WHERE "id" = $1`, id).
		Scan(&a.ID, &a.Email, &a.Provider, &a.IsConnected)
	if err != nil {
		return nil, fmt.Errorf("get email account %s: %w", id, err)
	}
	return &a, nil
}

// MarkBroadcastSent transitions a broadcast out of SCHEDULED. This status
// flip is what prevents a re-send on the next sweep.
func (s *Store) MarkBroadcastSent(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "BroadcastEmail"
		SET "status" = 'SENT', "sentAt" = NOW(), "updatedAt" = NOW()
		WHERE "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("mark broadcast sent %s: %w", id, err)
	}
	return nil
}

// MarkBroadcastFailed transitions a broadcast to FAILED.
func (s *Store) MarkBroadcastFailed(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `
		UPDATE "BroadcastEmail"
		SET "status" = 'FAILED', "updatedAt" = NOW()
		WHERE "id" = $1`, id)
	if err != nil {
		return fmt.Errorf("mark broadcast failed %s: %w", id, err)
	}
	return nil
}

// CountDueBroadcasts counts broadcasts the broadcaster would act on.
func (s *Store) CountDueBroadcasts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM "BroadcastEmail"
		WHERE "status" = 'SCHEDULED'
		AND "scheduledFor" <= NOW()`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count due broadcasts: %w", err)
	}
	return count, nil
}
