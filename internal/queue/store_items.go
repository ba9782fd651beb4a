package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrDuplicateSource is returned when adding a source path already queued.
var ErrDuplicateSource = errors.New("source path already queued")

// Add inserts a new pending item for a source recording.
func (s *Store) Add(ctx context.Context, sourcePath, subtitlePath string) (*Item, error) {
	ctx = ensureContext(ctx)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx,
		"INSERT INTO queue_items (source_path, subtitle_path, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		sourcePath, nullableString(subtitlePath), string(StatusPending), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSource, sourcePath)
		}
		return nil, fmt.Errorf("insert queue item: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}

// GetByID loads one item; returns nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+itemColumns+" FROM queue_items WHERE id = ?", id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load queue item %d: %w", id, err)
	}
	return item, nil
}

// List returns items filtered by status; with no statuses it returns everything.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + itemColumns + " FROM queue_items"
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += " WHERE status IN (" + makePlaceholders(len(statuses)) + ")"
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan queue item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// NextForStatus claims the oldest item in the given status, atomically moving
// it to the claimed status. Returns nil when nothing is actionable.
func (s *Store) NextForStatus(ctx context.Context, from, claimed Status) (*Item, error) {
	ctx = ensureContext(ctx)
	var item *Item
	err := retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		row := tx.QueryRowContext(ctx,
			"SELECT "+itemColumns+" FROM queue_items WHERE status = ? ORDER BY id ASC LIMIT 1",
			string(from))
		candidate, err := scanItem(row)
		if errors.Is(err, sql.ErrNoRows) {
			item = nil
			return tx.Commit()
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC().Format(time.RFC3339Nano)
		if _, err := tx.ExecContext(ctx,
			"UPDATE queue_items SET status = ?, updated_at = ? WHERE id = ?",
			string(claimed), now, candidate.ID); err != nil {
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
		candidate.Status = claimed
		item = candidate
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("claim next %s item: %w", from, err)
	}
	return item, nil
}

// Update persists every mutable field of the item.
func (s *Store) Update(ctx context.Context, item *Item) error {
	ctx = ensureContext(ctx)
	now := time.Now().UTC()
	_, err := s.execWithRetry(ctx,
		`UPDATE queue_items SET
			subtitle_path = ?, project_path = ?, export_path = ?,
			status = ?, error_message = ?, progress_stage = ?, progress_message = ?,
			needs_review = ?, review_reason = ?, updated_at = ?
		WHERE id = ?`,
		nullableString(item.SubtitlePath),
		nullableString(item.ProjectPath),
		nullableString(item.ExportPath),
		string(item.Status),
		nullableString(item.ErrorMessage),
		nullableString(item.ProgressStage),
		nullableString(item.ProgressMessage),
		boolToInt(item.NeedsReview),
		nullableString(item.ReviewReason),
		now.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update queue item %d: %w", item.ID, err)
	}
	item.UpdatedAt = now
	return nil
}

// Clear deletes items in the given statuses; with no statuses it deletes
// every terminal item. Returns the number of rows removed.
func (s *Store) Clear(ctx context.Context, statuses ...Status) (int64, error) {
	ctx = ensureContext(ctx)
	if len(statuses) == 0 {
		statuses = []Status{StatusCompleted, StatusFailed, StatusReview}
	}
	args := make([]any, 0, len(statuses))
	for _, status := range statuses {
		args = append(args, string(status))
	}
	res, err := s.execWithRetry(ctx,
		"DELETE FROM queue_items WHERE status IN ("+makePlaceholders(len(statuses))+")", args...)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// RetryFailed returns failed and review items to pending, clearing their
// failure fields. With ids it retries only those items; otherwise every
// retryable item. Returns the number of rows updated.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	ctx = ensureContext(ctx)
	query := `UPDATE queue_items SET
			status = ?, error_message = NULL, needs_review = 0, review_reason = NULL, updated_at = ?
		WHERE status IN (?, ?)`
	args := []any{
		string(StatusPending),
		time.Now().UTC().Format(time.RFC3339Nano),
		string(StatusFailed),
		string(StatusReview),
	}
	if len(ids) > 0 {
		query += " AND id IN (" + makePlaceholders(len(ids)) + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	res, err := s.execWithRetry(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("retry failed items: %w", err)
	}
	return res.RowsAffected()
}

// ResetStuckProcessing rolls items stranded in a processing status back to
// the preceding stable status. Run at daemon startup.
func (s *Store) ResetStuckProcessing(ctx context.Context) (int64, error) {
	ctx = ensureContext(ctx)
	var total int64
	for _, transition := range stageRollbackTransitions {
		res, err := s.execWithRetry(ctx,
			"UPDATE queue_items SET status = ?, updated_at = ? WHERE status = ?",
			string(transition.to), time.Now().UTC().Format(time.RFC3339Nano), string(transition.from))
		if err != nil {
			return total, fmt.Errorf("rollback %s items: %w", transition.from, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// Health aggregates queue counts per lifecycle state.
func (s *Store) Health(ctx context.Context) (HealthSummary, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(1) FROM queue_items GROUP BY status")
	if err != nil {
		return HealthSummary{}, fmt.Errorf("queue health: %w", err)
	}
	defer rows.Close()

	var summary HealthSummary
	for rows.Next() {
		var statusStr string
		var count int
		if err := rows.Scan(&statusStr, &count); err != nil {
			return HealthSummary{}, fmt.Errorf("scan health row: %w", err)
		}
		summary.Total += count
		switch status := Status(statusStr); {
		case status == StatusPending:
			summary.Pending += count
		case IsProcessingStatus(status):
			summary.Processing += count
		case status == StatusFailed:
			summary.Failed += count
		case status == StatusReview:
			summary.Review += count
		case status == StatusCompleted:
			summary.Completed += count
		}
	}
	return summary, rows.Err()
}
