package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"teammy/internal/model"
	"teammy/pkg/metrics"
)

var ErrMilestoneNotFound = errors.New("milestone not found")

// observeQuery feeds the db_query_duration histogram. Meant for use as
// `defer observeQuery("list", "milestones", time.Now())`.
func observeQuery(operation, table string, start time.Time) {
	metrics.RecordDBQueryDuration(operation, table, time.Since(start))
}

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{
		db:     db,
		logger: logger,
	}
}

// progressJoin aggregates backlog counts per milestone. An item counts as
// complete when its status is done or ready.
const progressJoin = `
        LEFT JOIN (
            SELECT milestone_id,
                   COUNT(*) AS total_items,
                   COUNT(*) FILTER (WHERE status IN ('done', 'ready')) AS completed_items
            FROM backlog_items
            WHERE milestone_id IS NOT NULL
            GROUP BY milestone_id
        ) p ON p.milestone_id = m.id
`

const milestoneColumns = `
            m.id, m.group_id, m.name, m.description, m.target_date, m.status,
            m.completed_at, m.created_at, m.updated_at,
            COALESCE(p.total_items, 0), COALESCE(p.completed_items, 0)
`

func (r *MilestoneRepository) scanMilestone(row pgx.Row) (*model.Milestone, error) {
	var m model.Milestone
	var targetDate *time.Time
	if err := row.Scan(
		&m.ID,
		&m.GroupID,
		&m.Name,
		&m.Description,
		&targetDate,
		&m.Status,
		&m.CompletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.TotalItems,
		&m.CompletedItems,
	); err != nil {
		return nil, err
	}
	if targetDate != nil {
		m.TargetDate = model.DateFromTime(*targetDate)
	}
	finishMilestone(&m)
	return &m, nil
}

// finishMilestone fills the derived fields the API contract promises.
func finishMilestone(m *model.Milestone) {
	if m.TotalItems > 0 {
		m.CompletionPercent = m.CompletedItems * 100 / m.TotalItems
	}
	m.IsOverdue = model.ComputeOverdue(m.TargetDate, m.CompletedItems, m.TotalItems, model.Today())
}

func (r *MilestoneRepository) ListByGroup(ctx context.Context, groupID string) ([]model.Milestone, error) {
	defer observeQuery("list", "milestones", time.Now())

	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones m ` + progressJoin + `
        WHERE m.group_id = $1
        ORDER BY m.created_at ASC
    `

	rows, err := r.db.Query(ctx, query, groupID)
	if err != nil {
		r.logger.Error("Failed to list milestones", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		m, err := r.scanMilestone(rows)
		if err != nil {
			r.logger.Error("Failed to scan milestone", zap.Error(err))
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

// ListByWindow returns milestones whose target date falls inside [start, end],
// plus undated milestones, for the timeline read model.
func (r *MilestoneRepository) ListByWindow(ctx context.Context, groupID string, start, end time.Time) ([]model.Milestone, error) {
	defer observeQuery("list_window", "milestones", time.Now())

	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones m ` + progressJoin + `
        WHERE m.group_id = $1
          AND (m.target_date IS NULL OR m.target_date BETWEEN $2 AND $3)
        ORDER BY m.target_date ASC NULLS LAST
    `

	rows, err := r.db.Query(ctx, query, groupID, start, end)
	if err != nil {
		r.logger.Error("Failed to list timeline milestones", zap.String("group_id", groupID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		m, err := r.scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

func (r *MilestoneRepository) FindByID(ctx context.Context, groupID string, id int) (*model.Milestone, error) {
	defer observeQuery("find", "milestones", time.Now())

	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones m ` + progressJoin + `
        WHERE m.group_id = $1 AND m.id = $2
    `

	m, err := r.scanMilestone(r.db.QueryRow(ctx, query, groupID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMilestoneNotFound
		}
		r.logger.Error("Failed to find milestone", zap.Int("id", id), zap.Error(err))
		return nil, err
	}
	return m, nil
}

func (r *MilestoneRepository) Insert(ctx context.Context, m *model.Milestone) (int, error) {
	defer observeQuery("insert", "milestones", time.Now())

	r.logger.Debug("Inserting milestone",
		zap.String("group_id", m.GroupID),
		zap.String("name", m.Name),
	)

	query := `
        INSERT INTO milestones (group_id, name, description, target_date, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
        RETURNING id
    `
	var id int
	err := r.db.QueryRow(ctx, query,
		m.GroupID,
		m.Name,
		m.Description,
		nullableDate(m.TargetDate),
		m.Status,
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to insert milestone", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Milestone inserted successfully",
		zap.Int("id", id),
		zap.String("group_id", m.GroupID),
	)
	return id, nil
}

func (r *MilestoneRepository) Update(ctx context.Context, m *model.Milestone) error {
	defer observeQuery("update", "milestones", time.Now())

	query := `
        UPDATE milestones
        SET name = $1, description = $2, target_date = $3, status = $4,
            completed_at = $5, updated_at = NOW()
        WHERE group_id = $6 AND id = $7
    `
	tag, err := r.db.Exec(ctx, query,
		m.Name,
		m.Description,
		nullableDate(m.TargetDate),
		m.Status,
		m.CompletedAt,
		m.GroupID,
		m.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update milestone", zap.Int("id", m.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMilestoneNotFound
	}
	return nil
}

func (r *MilestoneRepository) Delete(ctx context.Context, groupID string, id int) error {
	defer observeQuery("delete", "milestones", time.Now())

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	// Items linked to the milestone revert to unassigned before the row goes.
	if _, err := tx.Exec(ctx,
		`UPDATE backlog_items SET milestone_id = NULL WHERE group_id = $1 AND milestone_id = $2`,
		groupID, id,
	); err != nil {
		r.logger.Error("Failed to unlink backlog items", zap.Int("milestone_id", id), zap.Error(err))
		return err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM milestones WHERE group_id = $1 AND id = $2`, groupID, id)
	if err != nil {
		r.logger.Error("Failed to delete milestone", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMilestoneNotFound
	}

	return tx.Commit(ctx)
}

// AssignItems bulk-links backlog items to a milestone.
func (r *MilestoneRepository) AssignItems(ctx context.Context, groupID string, milestoneID int, itemIDs []string) error {
	defer observeQuery("assign_items", "backlog_items", time.Now())

	tag, err := r.db.Exec(ctx,
		`UPDATE backlog_items SET milestone_id = $1 WHERE group_id = $2 AND id = ANY($3)`,
		milestoneID, groupID, itemIDs,
	)
	if err != nil {
		r.logger.Error("Failed to assign backlog items",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		return err
	}

	r.logger.Info("Backlog items assigned",
		zap.Int("milestone_id", milestoneID),
		zap.Int64("count", tag.RowsAffected()),
	)
	return nil
}

// UnassignItem unlinks one backlog item from a milestone.
func (r *MilestoneRepository) UnassignItem(ctx context.Context, groupID string, milestoneID int, itemID string) error {
	defer observeQuery("unassign_item", "backlog_items", time.Now())

	tag, err := r.db.Exec(ctx,
		`UPDATE backlog_items SET milestone_id = NULL
         WHERE group_id = $1 AND milestone_id = $2 AND id = $3`,
		groupID, milestoneID, itemID,
	)
	if err != nil {
		r.logger.Error("Failed to unassign backlog item", zap.String("item_id", itemID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("backlog item %s is not linked to milestone %d", itemID, milestoneID)
	}
	return nil
}

// ExtendTargetDate updates only the target date of a milestone.
func (r *MilestoneRepository) ExtendTargetDate(ctx context.Context, groupID string, id int, newDate time.Time) error {
	defer observeQuery("extend", "milestones", time.Now())

	tag, err := r.db.Exec(ctx,
		`UPDATE milestones SET target_date = $1, updated_at = NOW() WHERE group_id = $2 AND id = $3`,
		newDate, groupID, id,
	)
	if err != nil {
		r.logger.Error("Failed to extend milestone", zap.Int("id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrMilestoneNotFound
	}

	r.logger.Info("Milestone target date extended",
		zap.Int("id", id),
		zap.Time("new_target_date", newDate),
	)
	return nil
}

// MoveIncompleteItems reassigns all incomplete items of one milestone to
// another in a single transaction and returns the number moved.
func (r *MilestoneRepository) MoveIncompleteItems(ctx context.Context, groupID string, fromID, toID int) (int, error) {
	defer observeQuery("move_items", "backlog_items", time.Now())

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	moved, err := moveIncompleteInTx(ctx, tx, groupID, fromID, toID)
	if err != nil {
		r.logger.Error("Failed to move incomplete items",
			zap.Int("from", fromID),
			zap.Int("to", toID),
			zap.Error(err),
		)
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}

	r.logger.Info("Incomplete items moved",
		zap.Int("from", fromID),
		zap.Int("to", toID),
		zap.Int("moved", moved),
	)
	return moved, nil
}

// CreateAndMoveIncompleteItems creates a destination milestone and moves the
// source's incomplete items into it atomically. Returns the new milestone id
// and the number of items moved.
func (r *MilestoneRepository) CreateAndMoveIncompleteItems(ctx context.Context, groupID string, fromID int, dest *model.Milestone) (int, int, error) {
	defer observeQuery("create_and_move", "milestones", time.Now())

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback(ctx)

	var newID int
	err = tx.QueryRow(ctx,
		`INSERT INTO milestones (group_id, name, description, target_date, status, created_at, updated_at)
         VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
         RETURNING id`,
		groupID, dest.Name, dest.Description, nullableDate(dest.TargetDate), dest.Status,
	).Scan(&newID)
	if err != nil {
		r.logger.Error("Failed to create destination milestone", zap.Error(err))
		return 0, 0, err
	}

	moved, err := moveIncompleteInTx(ctx, tx, groupID, fromID, newID)
	if err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, 0, err
	}

	r.logger.Info("Destination milestone created and items moved",
		zap.Int("from", fromID),
		zap.Int("new_milestone_id", newID),
		zap.Int("moved", moved),
	)
	return newID, moved, nil
}

func moveIncompleteInTx(ctx context.Context, tx pgx.Tx, groupID string, fromID, toID int) (int, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE backlog_items SET milestone_id = $1
         WHERE group_id = $2 AND milestone_id = $3 AND status NOT IN ('done', 'ready')`,
		toID, groupID, fromID,
	)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// ListOverdue returns all milestones past their target date with incomplete
// items, across groups. Used by the periodic overdue scanner.
func (r *MilestoneRepository) ListOverdue(ctx context.Context) ([]model.Milestone, error) {
	defer observeQuery("list_overdue", "milestones", time.Now())

	query := `
        SELECT ` + milestoneColumns + `
        FROM milestones m ` + progressJoin + `
        WHERE m.target_date IS NOT NULL
          AND m.target_date < CURRENT_DATE
          AND COALESCE(p.completed_items, 0) < COALESCE(p.total_items, 0)
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list overdue milestones", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	milestones := []model.Milestone{}
	for rows.Next() {
		m, err := r.scanMilestone(rows)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

func nullableDate(d model.DateOnly) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
