package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tavolahq/tavola/internal/domain"
)

type ActivityRepo struct {
	db querier
}

func NewActivityRepo(db querier) *ActivityRepo {
	return &ActivityRepo{db: db}
}

func (r *ActivityRepo) Insert(ctx context.Context, e *domain.ActivityEntry) error {
	at := e.Time
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO card_activity (id, card_id, user_id, kind, prev_column_id, new_column_id, definition, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.CardID, e.UserID, e.Kind, e.PrevColumnID, e.NewColumnID, e.Definition, at,
	)
	if err != nil {
		return fmt.Errorf("activityRepo.Insert: %w", err)
	}
	return nil
}

func (r *ActivityRepo) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ActivityEntry, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, card_id, user_id, kind, prev_column_id, new_column_id, definition, at
		 FROM card_activity WHERE card_id = $1 ORDER BY at, id`,
		cardID,
	)
	if err != nil {
		return nil, fmt.Errorf("activityRepo.ListByCard: %w", err)
	}
	defer rows.Close()

	var entries []*domain.ActivityEntry
	for rows.Next() {
		var e domain.ActivityEntry
		if err := rows.Scan(&e.ID, &e.CardID, &e.UserID, &e.Kind, &e.PrevColumnID, &e.NewColumnID, &e.Definition, &e.Time); err != nil {
			return nil, fmt.Errorf("activityRepo.ListByCard: scan: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("activityRepo.ListByCard: rows: %w", err)
	}
	return entries, nil
}
