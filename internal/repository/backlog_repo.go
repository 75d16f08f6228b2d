package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"teammy/internal/model"
)

type BacklogRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBacklogRepository(db *pgxpool.Pool, logger *zap.Logger) *BacklogRepository {
	return &BacklogRepository{
		db:     db,
		logger: logger,
	}
}

const backlogColumns = `
            id, group_id, milestone_id, title, status, column_name, due_date, created_at
`

func scanBacklogItem(row pgx.Row) (*model.BacklogItem, error) {
	var b model.BacklogItem
	var dueDate *time.Time
	if err := row.Scan(
		&b.ID,
		&b.GroupID,
		&b.MilestoneID,
		&b.Title,
		&b.Status,
		&b.ColumnName,
		&dueDate,
		&b.CreatedAt,
	); err != nil {
		return nil, err
	}
	if dueDate != nil {
		b.DueDate = model.DateFromTime(*dueDate)
	}
	return &b, nil
}

func (r *BacklogRepository) ListByGroup(ctx context.Context, groupID string) ([]model.BacklogItem, error) {
	defer observeQuery("list", "backlog_items", time.Now())

	query := `
        SELECT ` + backlogColumns + `
        FROM backlog_items
        WHERE group_id = $1
        ORDER BY created_at ASC
    `

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		r.logger.Error("Failed to list backlog items", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	items := []model.BacklogItem{}
	for rows.Next() {
		b, err := scanBacklogItem(rows)
		if err != nil {
			r.logger.Error("Failed to scan backlog item", zap.Error(err))
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}

func (r *BacklogRepository) ListByMilestone(ctx context.Context, groupID string, milestoneID int) ([]model.BacklogItem, error) {
	defer observeQuery("list_by_milestone", "backlog_items", time.Now())

	query := `
        SELECT ` + backlogColumns + `
        FROM backlog_items
        WHERE group_id = $1 AND milestone_id = $2
        ORDER BY due_date ASC NULLS LAST, created_at ASC
    `

	rows, err := r.db.Query(ctx, query, groupID, milestoneID)
	if err != nil {
		r.logger.Error("Failed to list milestone backlog items",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return nil, err
	}
	defer rows.Close()

	items := []model.BacklogItem{}
	for rows.Next() {
		b, err := scanBacklogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *b)
	}
	return items, rows.Err()
}
