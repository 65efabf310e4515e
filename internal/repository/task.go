package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/argus-crm/argus/internal/models"
)

// ListTasks returns every live task with its extra assignees aggregated,
// ordered by creation time so resolution output is stable across calls.
func (r *Repository) ListTasks(ctx context.Context) ([]models.Task, error) {
	startTime := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("list_tasks").Observe(time.Since(startTime).Seconds())
	}()

	query := `
		SELECT t.id, t.title, COALESCE(t.owner_id, ''), COALESCE(t.primary_assignee_id, ''),
		       COALESCE(t.team_id, ''), t.scope, t.shared_with_team, t.department_wide,
		       COALESCE(array_agg(a.assignee_id) FILTER (WHERE a.assignee_id IS NOT NULL), '{}')
		FROM tasks t
		LEFT JOIN task_assignees a ON a.task_id = t.id
		WHERE t.deleted_at IS NULL
		GROUP BY t.id
		ORDER BY t.created_at, t.id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var task models.Task
		err = rows.Scan(
			&task.ID, &task.Title, &task.OwnerID, &task.PrimaryAssigneeID,
			&task.TeamID, &task.Scope, &task.SharedWithTeam, &task.DepartmentWide,
			&task.ExtraAssigneeIDs,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate task rows: %w", err)
	}

	return tasks, nil
}

// SaveTask inserts the task or updates it in place, then replaces its extra
// assignee set. The stamped team_id is written on insert only; updates never
// rewrite it.
func (r *Repository) SaveTask(ctx context.Context, task models.Task) error {
	startTime := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("save_task").Observe(time.Since(startTime).Seconds())
	}()

	query := `
		INSERT INTO tasks (id, title, owner_id, primary_assignee_id, team_id, scope, shared_with_team, department_wide)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			primary_assignee_id = EXCLUDED.primary_assignee_id,
			scope = EXCLUDED.scope,
			shared_with_team = EXCLUDED.shared_with_team,
			department_wide = EXCLUDED.department_wide,
			updated_at = CURRENT_TIMESTAMP;`

	_, err := r.db.Exec(ctx, query,
		task.ID, task.Title, task.OwnerID, task.PrimaryAssigneeID,
		task.TeamID, string(task.Scope), task.SharedWithTeam, task.DepartmentWide)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	if err = r.replaceAssignees(ctx, task.ID, task.ExtraAssigneeIDs); err != nil {
		return fmt.Errorf("failed to update task assignees: %w", err)
	}

	return nil
}

// SoftDeleteTask flags the task as deleted; nothing in this service ever
// hard-deletes a task row.
func (r *Repository) SoftDeleteTask(ctx context.Context, taskID string) error {
	startTime := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("soft_delete_task").Observe(time.Since(startTime).Seconds())
	}()

	query := `UPDATE tasks SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL;`

	_, err := r.db.Exec(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete task: %w", err)
	}

	return nil
}

func (r *Repository) replaceAssignees(ctx context.Context, taskID string, assigneeIDs []string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM task_assignees WHERE task_id = $1;`, taskID)
	if err != nil {
		return fmt.Errorf("failed to clear assignees: %w", err)
	}

	insertQuery := `
		INSERT INTO task_assignees (task_id, assignee_id)
		VALUES ($1, $2)
		ON CONFLICT (task_id, assignee_id) DO NOTHING;`

	for _, assigneeID := range assigneeIDs {
		if _, err = r.db.Exec(ctx, insertQuery, taskID, assigneeID); err != nil {
			return fmt.Errorf("failed to insert assignee '%s': %w", assigneeID, err)
		}
	}

	return nil
}
