package resumes

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
)

// queryTimeout bounds every statement so a stalled database cannot hold a
// request open. Variable for tests.
var queryTimeout = 5 * time.Second

// PGRepo implements Repo using Postgres. Analysis and job-match payloads are
// stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new record.
func (r *PGRepo) Create(ctx context.Context, resume Resume) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	const query = `
INSERT INTO resumes (
    id,
    owner_id,
    filename,
    resume_name,
    url,
    deletable_id,
    mime_type,
    size_bytes,
    content_digest,
    resume_text,
    analysis,
    job_match,
    uploaded_at,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	analysisJSON, err := json.Marshal(resume.Analysis)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	var matchJSON sql.NullString
	if resume.JobMatch != nil {
		encoded, err := json.Marshal(resume.JobMatch)
		if err != nil {
			return fmt.Errorf("marshal job match: %w", err)
		}
		matchJSON = sql.NullString{String: string(encoded), Valid: true}
	}
	var resumeText sql.NullString
	if resume.ResumeText != "" {
		resumeText = sql.NullString{String: resume.ResumeText, Valid: true}
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		resume.ID,
		resume.OwnerID,
		resume.Filename,
		resume.ResumeName,
		resume.URL,
		resume.DeletableID,
		resume.MimeType,
		resume.SizeBytes,
		resume.ContentDigest,
		resumeText,
		string(analysisJSON),
		matchJSON,
		resume.UploadedAt,
		resume.CreatedAt,
	)
	return err
}

const selectColumns = `id, owner_id, filename, resume_name, url, deletable_id, mime_type, size_bytes, content_digest, resume_text, analysis, job_match, uploaded_at, created_at`

// GetByID fetches a record by ID.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Resume, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE id = $1 LIMIT 1`, selectColumns)
	record, err := scanResume(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Resume{}, ErrNotFound
		}
		return Resume{}, err
	}
	return record, nil
}

// ListByOwner lists records for an owner, newest first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string) ([]Resume, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM resumes WHERE owner_id = $1 ORDER BY created_at DESC`, selectColumns)
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Resume
	for rows.Next() {
		record, err := scanResume(rows)
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

	res, err := r.DB.ExecContext(ctx, `DELETE FROM resumes WHERE id = $1`, id)
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

func scanResume(row rowScanner) (Resume, error) {
	var record Resume
	var resumeText sql.NullString
	var analysisJSON string
	var matchJSON sql.NullString
	if err := row.Scan(
		&record.ID,
		&record.OwnerID,
		&record.Filename,
		&record.ResumeName,
		&record.URL,
		&record.DeletableID,
		&record.MimeType,
		&record.SizeBytes,
		&record.ContentDigest,
		&resumeText,
		&analysisJSON,
		&matchJSON,
		&record.UploadedAt,
		&record.CreatedAt,
	); err != nil {
		return Resume{}, err
	}
	if resumeText.Valid {
		record.ResumeText = resumeText.String
	}
	if err := json.Unmarshal([]byte(analysisJSON), &record.Analysis); err != nil {
		return Resume{}, fmt.Errorf("unmarshal analysis: %w", err)
	}
	if matchJSON.Valid {
		var match ml.JobMatchPayload
		if err := json.Unmarshal([]byte(matchJSON.String), &match); err != nil {
			return Resume{}, fmt.Errorf("unmarshal job match: %w", err)
		}
		record.JobMatch = &match
	}
	return record, nil
}

var _ Repo = (*PGRepo)(nil)
