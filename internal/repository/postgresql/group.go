package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-rules/internal/domain/group"
	"github.com/cmlabs-hris/attendance-rules/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type groupRepository struct {
	db *database.DB
}

const groupColumns = `id, name, type, rules, member_ids, is_active, created_at, updated_at`

func scanGroup(row pgx.Row) (group.AttendanceGroup, error) {
	var g group.AttendanceGroup
	err := row.Scan(&g.ID, &g.Name, &g.Type, &g.Rules, &g.MemberIDs, &g.IsActive, &g.CreatedAt, &g.UpdatedAt)
	if g.Rules == nil {
		g.Rules = group.Rules{}
	}
	return g, err
}

// Find implements group.Repository.
func (r *groupRepository) Find(ctx context.Context, id string) (group.AttendanceGroup, error) {
	if _, err := uuid.Parse(id); err != nil {
		return group.AttendanceGroup{}, group.ErrAttendanceGroupNotFound
	}

	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + groupColumns + ` FROM attendance_groups WHERE id = $1`

	g, err := scanGroup(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return group.AttendanceGroup{}, group.ErrAttendanceGroupNotFound
		}
		return group.AttendanceGroup{}, fmt.Errorf("failed to get attendance group by id: %w", err)
	}
	return g, nil
}

// Save implements group.Repository.
func (r *groupRepository) Save(ctx context.Context, g group.AttendanceGroup) (group.AttendanceGroup, error) {
	q := GetQuerier(ctx, r.db)

	members := g.MemberIDs
	if members == nil {
		members = []string{}
	}
	rules := g.Rules
	if rules == nil {
		rules = group.Rules{}
	}

	if g.ID == "" {
		query := `
			INSERT INTO attendance_groups (name, type, rules, member_ids, is_active, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`
		if err := q.QueryRow(ctx, query, g.Name, g.Type, rules, members, g.IsActive, g.CreatedAt, g.UpdatedAt).Scan(&g.ID); err != nil {
			return group.AttendanceGroup{}, fmt.Errorf("failed to create attendance group: %w", err)
		}
		return g, nil
	}

	query := `
		UPDATE attendance_groups
		SET name = $2, type = $3, rules = $4, is_active = $5, updated_at = $6
		WHERE id = $1
		RETURNING member_ids
	`
	if err := q.QueryRow(ctx, query, g.ID, g.Name, g.Type, rules, g.IsActive, g.UpdatedAt).Scan(&g.MemberIDs); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return group.AttendanceGroup{}, group.ErrAttendanceGroupNotFound
		}
		return group.AttendanceGroup{}, fmt.Errorf("failed to update attendance group: %w", err)
	}
	return g, nil
}

// AddMember implements group.Repository.
func (r *groupRepository) AddMember(ctx context.Context, groupID, employeeID string, now time.Time) (bool, error) {
	query := `
		UPDATE attendance_groups
		SET member_ids = array_append(member_ids, $2::text), updated_at = $3
		WHERE id = $1
		  AND NOT ($2::text = ANY(member_ids))
	`
	return r.updateMembers(ctx, query, groupID, employeeID, now)
}

// RemoveMember implements group.Repository.
func (r *groupRepository) RemoveMember(ctx context.Context, groupID, employeeID string, now time.Time) (bool, error) {
	query := `
		UPDATE attendance_groups
		SET member_ids = array_remove(member_ids, $2::text), updated_at = $3
		WHERE id = $1
		  AND $2::text = ANY(member_ids)
	`
	return r.updateMembers(ctx, query, groupID, employeeID, now)
}

// updateMembers runs a single-statement array update so concurrent changes
// to the same group never overwrite each other.
func (r *groupRepository) updateMembers(ctx context.Context, query, groupID, employeeID string, now time.Time) (bool, error) {
	if _, err := uuid.Parse(groupID); err != nil {
		return false, group.ErrAttendanceGroupNotFound
	}

	q := GetQuerier(ctx, r.db)

	commandTag, err := q.Exec(ctx, query, groupID, employeeID, now)
	if err != nil {
		return false, fmt.Errorf("failed to update attendance group members: %w", err)
	}
	if commandTag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM attendance_groups WHERE id = $1)`, groupID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check attendance group: %w", err)
	}
	if !exists {
		return false, group.ErrAttendanceGroupNotFound
	}
	return false, nil
}

// FindByMember implements group.Repository.
func (r *groupRepository) FindByMember(ctx context.Context, employeeID string) (*group.AttendanceGroup, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + groupColumns + `
		FROM attendance_groups
		WHERE is_active = TRUE
		  AND $1 = ANY(member_ids)
		ORDER BY created_at, id
		LIMIT 1
	`

	g, err := scanGroup(q.QueryRow(ctx, query, employeeID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get attendance group by member: %w", err)
	}
	return &g, nil
}

// FindActive implements group.Repository.
func (r *groupRepository) FindActive(ctx context.Context) ([]group.AttendanceGroup, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + groupColumns + ` FROM attendance_groups WHERE is_active = TRUE ORDER BY created_at, id`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active attendance groups: %w", err)
	}
	defer rows.Close()

	groups := []group.AttendanceGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance groups: %w", err)
	}
	return groups, nil
}

func NewGroupRepository(db *database.DB) group.Repository {
	return &groupRepository{db: db}
}
