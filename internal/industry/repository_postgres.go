package industry

import (
	"database/sql"
)

type PostgresRepository struct {
	db *sql.DB
}

const (
	userExistsQuery  = `SELECT 1 FROM users WHERE user_id = $1`
	preferencesQuery = `
		SELECT i.industry_id, i.industry_name, i.description, (ui.user_id IS NOT NULL)
		FROM industries i
		LEFT JOIN user_industries ui ON ui.industry_id = i.industry_id AND ui.user_id = $1
		ORDER BY i.industry_id
	`
	guestPreferencesQuery = `
		SELECT industry_id, industry_name, description
		FROM industries
		ORDER BY industry_id
	`
	membershipQuery      = `SELECT EXISTS(SELECT 1 FROM user_industries WHERE user_id = $1 AND industry_id = $2)`
	insertSelectionQuery = `INSERT INTO user_industries (user_id, industry_id) VALUES ($1, $2)`
	deleteSelectionQuery = `DELETE FROM user_industries WHERE user_id = $1 AND industry_id = $2`
	selectedIDsQuery     = `SELECT industry_id FROM user_industries WHERE user_id = $1 ORDER BY industry_id`
)

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetPreferences(userID int) ([]View, error) {
	var exists int
	if err := r.db.QueryRow(userExistsQuery, userID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(preferencesQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]View, 0)
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.Name, &v.Description, &v.IsSelected); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *PostgresRepository) GetGuestPreferences() ([]View, error) {
	rows, err := r.db.Query(guestPreferencesQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]View, 0)
	for rows.Next() {
		var v View
		if err := rows.Scan(&v.ID, &v.Name, &v.Description); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// SynchronizePreferences reconciles the desired selections against the stored
// set inside a single transaction. Membership is re-read fresh inside the
// transaction so the diff is computed against committed state, and either the
// whole batch commits or the rollback in the defer undoes all of it.
//
// Two concurrent calls for the same user are not serialized here: the last
// transaction to commit wins.
func (r *PostgresRepository) SynchronizePreferences(userID int, desired []Selection) ([]View, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	if err := tx.QueryRow(userExistsQuery, userID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	for _, sel := range desired {
		var stored bool
		if err := tx.QueryRow(membershipQuery, userID, sel.IndustryID).Scan(&stored); err != nil {
			return nil, err
		}
		switch {
		case sel.IsSelected && !stored:
			if _, err := tx.Exec(insertSelectionQuery, userID, sel.IndustryID); err != nil {
				return nil, err
			}
		case !sel.IsSelected && stored:
			if _, err := tx.Exec(deleteSelectionQuery, userID, sel.IndustryID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	// return the authoritative post-commit state rather than echoing input
	return r.GetPreferences(userID)
}

func (r *PostgresRepository) SelectedIndustryIDs(userID int) ([]int, error) {
	var exists int
	if err := r.db.QueryRow(userExistsQuery, userID).Scan(&exists); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(selectedIDsQuery, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
