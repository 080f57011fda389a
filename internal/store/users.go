package store

import (
	"context"
	"fmt"
)

// User is a User row as seen by the timesheet drafter.
type User struct {
	ID              string
	Name            string
	Email           string
	GithubUsername  string
	TimesheetStatus string
}

// IncompleteTimesheetUsers returns users whose timesheet is not completed.
func (s *Store) IncompleteTimesheetUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.Query(ctx, `
		SELECT "id", "name", "email", COALESCE("githubUsername",''), "timesheetStatus"
		FROM "User"
		WHERE "timesheetStatus" != 'completed'`)
	if err != nil {
		return nil, fmt.Errorf("incomplete timesheet users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.GithubUsername, &u.TimesheetStatus); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
