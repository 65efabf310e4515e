package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/argus-crm/argus/internal/models"
)

// ListStaff returns every staff identity record. Rows with roles outside the
// closed set are skipped downstream during normalization.
func (r *Repository) ListStaff(ctx context.Context) ([]models.Viewer, error) {
	startTime := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("list_staff").Observe(time.Since(startTime).Seconds())
	}()

	query := `
		SELECT id, role, COALESCE(team_id, ''), COALESCE(location, '')
		FROM staff
		ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query staff: %w", err)
	}
	defer rows.Close()

	var staff []models.Viewer
	for rows.Next() {
		var person models.Viewer
		var role string
		if err = rows.Scan(&person.ID, &role, &person.TeamID, &person.Location); err != nil {
			return nil, fmt.Errorf("failed to scan staff row: %w", err)
		}
		person.Role = models.Role(role)
		staff = append(staff, person)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staff rows: %w", err)
	}

	return staff, nil
}
