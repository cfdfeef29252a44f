package coverletters

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// queryTimeout bounds every statement so a stalled database cannot hold a
// request open. Variable for tests.
var queryTimeout = 5 * time.Second

// PGRepo implements Repo using Postgres. The letter body is stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, letter CoverLetter) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	const query = `
INSERT INTO cover_letters (
    id,
    owner_id,
    company_name,
    job_title,
    job_description,
    tone,
    letter,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	letterJSON, err := json.Marshal(letter.Letter)
	if err != nil {
		return fmt.Errorf("marshal letter: %w", err)
	}
	var jobDescription sql.NullString
	if letter.JobDescription != "" {
		jobDescription = sql.NullString{String: letter.JobDescription, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		letter.ID,
		letter.OwnerID,
		letter.CompanyName,
		letter.JobTitle,
		jobDescription,
		letter.Tone,
		string(letterJSON),
		letter.CreatedAt,
	)
	return err
}

const letterColumns = `id, owner_id, company_name, job_title, job_description, tone, letter, created_at`

// GetByID fetches a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (CoverLetter, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM cover_letters WHERE id = $1 LIMIT 1`, letterColumns)
	record, err := scanCoverLetter(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return CoverLetter{}, ErrNotFound
		}
		return CoverLetter{}, err
	}
	return record, nil
}

// ListByOwner lists records for an owner, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM cover_letters WHERE owner_id = $1 ORDER BY created_at DESC`, letterColumns)
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CoverLetter
	for rows.Next() {
		record, err := scanCoverLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// Delete removes a record by ID.
func (r *PGRepo) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := r.DB.ExecContext(ctx, `DELETE FROM cover_letters WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCoverLetter(row rowScanner) (CoverLetter, error) {
	var record CoverLetter
	var jobDescription sql.NullString
	var letterJSON string
	if err := row.Scan(
		&record.ID,
		&record.OwnerID,
		&record.CompanyName,
		&record.JobTitle,
		&jobDescription,
		&record.Tone,
		&letterJSON,
		&record.CreatedAt,
	); err != nil {
		return CoverLetter{}, err
	}
	if jobDescription.Valid {
		record.JobDescription = jobDescription.String
	}
	if err := json.Unmarshal([]byte(letterJSON), &record.Letter); err != nil {
		return CoverLetter{}, fmt.Errorf("unmarshal letter: %w", err)
	}
	return record, nil
}

var _ Repo = (*PGRepo)(nil)
