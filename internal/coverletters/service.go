package coverletters

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/cache"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/telemetry"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/util"
)

// DefaultDraftTTL bounds how long a generated draft stays retrievable.
const DefaultDraftTTL = time.Hour

const defaultTone = "formal"

// Service contains business logic for cover letters.
type Service struct {
	Repo     Repo
	Cache    cache.Cache
	ML       ml.Client
	DraftTTL time.Duration

	now func() time.Time
}

// Generate asks the ML service for a draft, memoizing per owner+request so a
// retried generation does not cost a second gateway call. The returned digest
// identifies the draft; Save uses it to drop the cached entry.
func (s *Service) Generate(ctx context.Context, ownerID string, req ml.CoverLetterRequest) (Letter, string, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Letter{}, "", fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if strings.TrimSpace(req.CompanyName) == "" || strings.TrimSpace(req.JobTitle) == "" {
		return Letter{}, "", fmt.Errorf("%w: company name and job title are required", ErrValidation)
	}
	if strings.TrimSpace(req.Tone) == "" {
		req.Tone = defaultTone
	}

	encodedReq, err := json.Marshal(req)
	if err != nil {
		return Letter{}, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	digest := util.DigestBytes(encodedReq)
	key := DraftCacheKey(ownerID, digest)

	if s.Cache != nil {
		if raw, ok := s.Cache.Get(ctx, key); ok {
			var cached Letter
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				telemetry.Info("coverletter.draft.cache_hit", map[string]any{"owner_id": ownerID})
				return cached, digest, nil
			}
		}
	}

	payload, err := s.ML.GenerateCoverLetter(ctx, req)
	if err != nil {
		return Letter{}, "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	letter := fromPayload(payload)

	if s.Cache != nil {
		if encoded, err := json.Marshal(letter); err == nil {
			s.Cache.Set(ctx, key, string(encoded), s.draftTTL())
		}
	}
	return letter, digest, nil
}

// Save persists a cover letter after validating its required sections.
// draftDigest, when present, drops the cached draft the letter came from.
func (s *Service) Save(ctx context.Context, ownerID string, letter CoverLetter, draftDigest string) (CoverLetter, error) {
	if strings.TrimSpace(ownerID) == "" {
		return CoverLetter{}, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	if strings.TrimSpace(letter.CompanyName) == "" || strings.TrimSpace(letter.JobTitle) == "" {
		return CoverLetter{}, fmt.Errorf("%w: company name and job title are required", ErrValidation)
	}
	if err := validateLetter(letter.Letter); err != nil {
		return CoverLetter{}, err
	}
	if strings.TrimSpace(letter.Tone) == "" {
		letter.Tone = defaultTone
	}

	letter.ID = uuid.NewString()
	letter.OwnerID = ownerID
	letter.CreatedAt = s.nowTime()

	if err := s.Repo.Create(ctx, letter); err != nil {
		return CoverLetter{}, err
	}
	if s.Cache != nil && strings.TrimSpace(draftDigest) != "" {
		s.Cache.Invalidate(ctx, DraftCacheKey(ownerID, draftDigest))
	}
	return letter, nil
}

// Get returns a cover letter after checking ownership.
func (s *Service) Get(ctx context.Context, id, requestingOwnerID string) (CoverLetter, error) {
	letter, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return CoverLetter{}, err
	}
	if letter.OwnerID != requestingOwnerID {
		return CoverLetter{}, ErrAccessDenied
	}
	return letter, nil
}

// ListByOwner returns an owner's cover letters, newest first.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]CoverLetter, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, fmt.Errorf("%w: owner id is required", ErrValidation)
	}
	return s.Repo.ListByOwner(ctx, ownerID)
}

// Delete removes a cover letter after checking ownership.
func (s *Service) Delete(ctx context.Context, id, requestingOwnerID string) error {
	letter, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if letter.OwnerID != requestingOwnerID {
		return ErrAccessDenied
	}
	return s.Repo.Delete(ctx, letter.ID)
}

func validateLetter(letter Letter) error {
	for name, val := range map[string]string{
		"greeting": letter.Greeting,
		"body":     letter.Body,
		"closing":  letter.Closing,
		"signOff":  letter.SignOff,
	} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("%w: letter %s is required", ErrValidation, name)
		}
	}
	return nil
}

func fromPayload(p ml.CoverLetterPayload) Letter {
	return Letter{
		Greeting:      p.Greeting,
		Body:          p.Body,
		Closing:       p.Closing,
		SignOff:       p.SignOff,
		CandidateName: p.CandidateName,
	}
}

func (s *Service) draftTTL() time.Duration {
	if s.DraftTTL > 0 {
		return s.DraftTTL
	}
	return DefaultDraftTTL
}

func (s *Service) nowTime() time.Time {
	if s.now != nil {
		return s.now().UTC()
	}
	return time.Now().UTC()
}
