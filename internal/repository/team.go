package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/argus-crm/argus/internal/models"
)

// ListTeams returns the full team directory in creation order, soft-deleted
// entries included. Duplicate leaderships are resolved downstream by the
// directory, not here.
func (r *Repository) ListTeams(ctx context.Context) ([]models.Team, error) {
	startTime := time.Now()
	defer func() {
		r.metrics.DBQueryDuration.WithLabelValues("list_teams").Observe(time.Since(startTime).Seconds())
	}()

	query := `
		SELECT id, name, COALESCE(leader_id, ''), COALESCE(location, ''), deleted_at IS NOT NULL
		FROM teams
		ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		var team models.Team
		if err = rows.Scan(&team.ID, &team.Name, &team.LeaderID, &team.Location, &team.Deleted); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, team)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate team rows: %w", err)
	}

	return teams, nil
}
