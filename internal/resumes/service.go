package resumes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/cache"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/storage/object"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/telemetry"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/util"
)

const (
	// DefaultAnalysisTTL memoizes resume analysis across re-uploads.
	DefaultAnalysisTTL = 48 * time.Hour
	// DefaultJobMatchTTL memoizes resume/job match results.
	DefaultJobMatchTTL = 24 * time.Hour
)

// Service orchestrates the resume upload pipeline: store file, resolve the
// analysis through the cache or the ML gateway, optionally resolve a job
// match, persist the record, and compensate the stored object when a fatal
// step fails after the object-store write.
type Service struct {
	Repo        Repo
	Store       object.ObjectStore
	Cache       cache.Cache
	ML          ml.Client
	AnalysisTTL time.Duration
	JobMatchTTL time.Duration

	now func() time.Time
}

// Upload runs the full pipeline for one submitted resume. jobDescription is
// optional; when present a job match is attempted but its failure never fails
// the upload.
func (s *Service) Upload(ctx context.Context, ownerID string, fileBytes []byte, filename, mimeType, resumeName, jobDescription string) (Resume, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Resume{}, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if len(fileBytes) == 0 {
		return Resume{}, fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if strings.TrimSpace(filename) == "" {
		return Resume{}, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if strings.TrimSpace(mimeType) == "" {
		return Resume{}, fmt.Errorf("%w: mime type is required", ErrValidation)
	}

	stored, err := s.Store.Store(ctx, ownerID, filename, mimeType, bytes.NewReader(fileBytes))
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	resumeDigest := util.DigestBytes(fileBytes)

	analysis, resumeText, err := s.resolveAnalysis(ctx, resumeDigest, fileBytes, filename, stored.MimeType)
	if err != nil {
		s.compensate(ctx, stored, "analysis failed")
		return Resume{}, fmt.Errorf("%w: %v", ErrAnalysisService, err)
	}

	var jobMatch *ml.JobMatchPayload
	if strings.TrimSpace(jobDescription) != "" {
		jobMatch = s.resolveJobMatch(ctx, resumeDigest, resumeText, fileBytes, filename, stored.MimeType, jobDescription)
	}

	if strings.TrimSpace(resumeName) == "" {
		resumeName = filename
	}
	record := Resume{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Filename:      filename,
		ResumeName:    resumeName,
		URL:           stored.URL,
		DeletableID:   stored.DeletableID,
		MimeType:      stored.MimeType,
		SizeBytes:     stored.SizeBytes,
		ContentDigest: resumeDigest,
		ResumeText:    resumeText,
		Analysis:      analysis,
		JobMatch:      jobMatch,
		UploadedAt:    s.nowTime(),
		CreatedAt:     s.nowTime(),
	}

	if err := s.Repo.Create(ctx, record); err != nil {
		s.compensate(ctx, stored, "persistence failed")
		return Resume{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	telemetry.Info("resume.uploaded", map[string]any{
		"resume_id":  record.ID,
		"owner_id":   record.OwnerID,
		"digest":     resumeDigest,
		"size_bytes": record.SizeBytes,
		"job_match":  jobMatch != nil,
	})
	return record, nil
}

// SaveWithAnalysis persists an upload together with a caller-provided
// analysis, skipping the gateway entirely. The analysis JSON is validated at
// the boundary before anything is stored.
func (s *Service) SaveWithAnalysis(ctx context.Context, ownerID string, fileBytes []byte, filename, mimeType, resumeName string, analysisJSON []byte) (Resume, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Resume{}, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if len(fileBytes) == 0 {
		return Resume{}, fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if strings.TrimSpace(filename) == "" {
		return Resume{}, fmt.Errorf("%w: filename is required", ErrValidation)
	}
	if strings.TrimSpace(mimeType) == "" {
		return Resume{}, fmt.Errorf("%w: mime type is required", ErrValidation)
	}

	var analysis ml.AnalysisPayload
	if err := json.Unmarshal(analysisJSON, &analysis); err != nil {
		return Resume{}, fmt.Errorf("%w: invalid analysis JSON", ErrValidation)
	}
	if err := analysis.Validate(); err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	stored, err := s.Store.Store(ctx, ownerID, filename, mimeType, bytes.NewReader(fileBytes))
	if err != nil {
		return Resume{}, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	if strings.TrimSpace(resumeName) == "" {
		resumeName = filename
	}
	record := Resume{
		ID:            uuid.NewString(),
		OwnerID:       ownerID,
		Filename:      filename,
		ResumeName:    resumeName,
		URL:           stored.URL,
		DeletableID:   stored.DeletableID,
		MimeType:      stored.MimeType,
		SizeBytes:     stored.SizeBytes,
		ContentDigest: util.DigestBytes(fileBytes),
		Analysis:      analysis,
		UploadedAt:    s.nowTime(),
		CreatedAt:     s.nowTime(),
	}

	if err := s.Repo.Create(ctx, record); err != nil {
		s.compensate(ctx, stored, "persistence failed")
		return Resume{}, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return record, nil
}

// Get returns a record after checking ownership.
func (s *Service) Get(ctx context.Context, recordID, requestingOwnerID string) (Resume, error) {
	record, err := s.Repo.GetByID(ctx, recordID)
	if err != nil {
		return Resume{}, err
	}
	if record.OwnerID != requestingOwnerID {
		return Resume{}, ErrAccessDenied
	}
	return record, nil
}

// ListByOwner returns an owner's records, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]Resume, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Delete removes a record after checking ownership. Object-store and cache
// cleanup are best-effort; only the database delete is fatal.
func (s *Service) Delete(ctx context.Context, recordID, requestingOwnerID string) error {
	record, err := s.Repo.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if record.OwnerID != requestingOwnerID {
		return ErrAccessDenied
	}

	s.bestEffort("resume.delete.object", map[string]any{"resume_id": record.ID}, func() error {
		return s.Store.Delete(ctx, record.DeletableID, resourceHint(record.MimeType))
	})
	s.bestEffort("resume.delete.cache", map[string]any{"resume_id": record.ID}, func() error {
		if s.Cache != nil && record.ContentDigest != "" {
			s.Cache.Invalidate(ctx, AnalysisCacheKey(record.ContentDigest))
		}
		return nil
	})

	if err := s.Repo.Delete(ctx, record.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	telemetry.Info("resume.deleted", map[string]any{"resume_id": record.ID, "owner_id": record.OwnerID})
	return nil
}

// resolveAnalysis returns the analysis for a content digest, consulting the
// shared cache before calling the gateway. The returned text is empty on a
// cache hit because extraction was skipped.
func (s *Service) resolveAnalysis(ctx context.Context, resumeDigest string, fileBytes []byte, filename, mimeType string) (ml.AnalysisPayload, string, error) {
	key := AnalysisCacheKey(resumeDigest)
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached ml.AnalysisPayload
			if err := json.Unmarshal([]byte(raw), &cached); err == nil && cached.Validate() == nil {
				telemetry.Info("resume.analysis.cache_hit", map[string]any{"digest": resumeDigest})
				return cached, "", nil
			}
			// A corrupt entry is treated as a miss and recomputed.
			telemetry.Warn("resume.analysis.cache_corrupt", map[string]any{"digest": resumeDigest})
		}
	}

	text, err := s.ML.ExtractText(ctx, fileBytes, filename, mimeType)
	if err != nil {
		return ml.AnalysisPayload{}, "", fmt.Errorf("extract text: %w", err)
	}
	analysis, err := s.ML.Analyze(ctx, text)
	if err != nil {
		return ml.AnalysisPayload{}, "", fmt.Errorf("analyze: %w", err)
	}

	if s.Cache != nil {
		s.bestEffort("resume.analysis.cache_set", map[string]any{"digest": resumeDigest}, func() error {
			encoded, err := json.Marshal(analysis)
			if err != nil {
				return err
			}
			s.Cache.Set(ctx, key, string(encoded), s.analysisTTL())
			return nil
		})
	}
	return analysis, text, nil
}

// resolveJobMatch returns a match payload or nil; failure only costs the
// enrichment, never the upload.
func (s *Service) resolveJobMatch(ctx context.Context, resumeDigest, resumeText string, fileBytes []byte, filename, mimeType, jobDescription string) *ml.JobMatchPayload {
	jobDigest := util.DigestText(jobDescription)
	key := JobMatchCacheKey(resumeDigest, jobDigest)
	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached ml.JobMatchPayload
			if err := json.Unmarshal([]byte(raw), &cached); err == nil && cached.Validate() == nil {
				telemetry.Info("resume.match.cache_hit", map[string]any{"digest": resumeDigest, "job_digest": jobDigest})
				return &cached
			}
			telemetry.Warn("resume.match.cache_corrupt", map[string]any{"digest": resumeDigest, "job_digest": jobDigest})
		}
	}

	// The analysis cache hit skips extraction, so text may be missing here.
	if resumeText == "" {
		text, err := s.ML.ExtractText(ctx, fileBytes, filename, mimeType)
		if err != nil {
			telemetry.Warn("resume.match.extract_failed", map[string]any{"digest": resumeDigest, "err": err.Error()})
			return nil
		}
		resumeText = text
	}

	match, err := s.ML.Match(ctx, resumeText, jobDescription)
	if err != nil {
		telemetry.Warn("resume.match.failed", map[string]any{"digest": resumeDigest, "err": err.Error()})
		return nil
	}

	if s.Cache != nil {
		s.bestEffort("resume.match.cache_set", map[string]any{"digest": resumeDigest, "job_digest": jobDigest}, func() error {
			encoded, err := json.Marshal(match)
			if err != nil {
				return err
			}
			s.Cache.Set(ctx, key, string(encoded), s.jobMatchTTL())
			return nil
		})
	}
	return &match
}

// compensate deletes a stored object after a fatal downstream failure. It is
// attempted once; its own failure is logged and swallowed so it never masks
// the error being surfaced.
func (s *Service) compensate(ctx context.Context, stored object.StoredObject, reason string) {
	s.bestEffort("resume.compensate", map[string]any{"deletable_id": stored.DeletableID, "reason": reason}, func() error {
		return s.Store.Delete(ctx, stored.DeletableID, resourceHint(stored.MimeType))
	})
}

// bestEffort runs fn, logging failure and reporting it only through the
// return value.
func (s *Service) bestEffort(op string, fields map[string]any, fn func() error) bool {
	if err := fn(); err != nil {
		logged := make(map[string]any, len(fields)+1)
		for k, v := range fields {
			logged[k] = v
		}
		logged["err"] = err.Error()
		telemetry.Warn(op+".failed", logged)
		return false
	}
	return true
}

func resourceHint(mimeType string) string {
	if strings.HasPrefix(mimeType, "image/") {
		return "image"
	}
	return "raw"
}

func (s *Service) analysisTTL() time.Duration {
	if s.AnalysisTTL > 0 {
		return s.AnalysisTTL
	}
	return DefaultAnalysisTTL
}

func (s *Service) jobMatchTTL() time.Duration {
	if s.JobMatchTTL > 0 {
		return s.JobMatchTTL
	}
	return DefaultJobMatchTTL
}

func (s *Service) nowTime() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
