// Package ml abstracts the external ML service that performs resume text
// extraction, analysis, job matching and cover-letter generation.
package ml

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Client is the gateway to the ML service.
type Client interface {
	// ExtractText converts raw resume bytes into plain text.
	ExtractText(ctx context.Context, file []byte, fileName, mimeType string) (string, error)
	// Analyze converts extracted resume text into a structured analysis.
	Analyze(ctx context.Context, resumeText string) (AnalysisPayload, error)
	// Match scores resume text against a job description.
	Match(ctx context.Context, resumeText, jobDescription string) (JobMatchPayload, error)
	// GenerateCoverLetter drafts a cover letter for a job application.
	GenerateCoverLetter(ctx context.Context, req CoverLetterRequest) (CoverLetterPayload, error)
}

// ErrUnavailable wraps transport-level gateway failures.
var ErrUnavailable = errors.New("ml service unavailable")

// AnalysisPayload is the structured resume analysis returned by the service.
// Fields are validated at the boundary so malformed upstream responses fail
// fast instead of propagating unknown shapes into storage.
type AnalysisPayload struct {
	ATSScore   int      `json:"ats_score"`
	Summary    string   `json:"summary,omitempty"`
	Strengths  []string `json:"strengths,omitempty"`
	Weaknesses []string `json:"weaknesses,omitempty"`
	Skills     []string `json:"skills,omitempty"`
}

// Validate checks the payload against the contract the rest of the pipeline
// relies on.
func (p AnalysisPayload) Validate() error {
	if p.ATSScore < 0 || p.ATSScore > 100 {
		return fmt.Errorf("analysis payload: ats_score %d out of range", p.ATSScore)
	}
	return nil
}

// JobMatchPayload is the structured resume/job match returned by the service.
type JobMatchPayload struct {
	MatchScore     int      `json:"match_score"`
	MatchedSkills  []string `json:"matched_skills,omitempty"`
	MissingSkills  []string `json:"missing_skills,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Validate checks the payload shape.
func (p JobMatchPayload) Validate() error {
	if p.MatchScore < 0 || p.MatchScore > 100 {
		return fmt.Errorf("job match payload: match_score %d out of range", p.MatchScore)
	}
	return nil
}

// CoverLetterRequest carries the inputs for cover-letter generation.
type CoverLetterRequest struct {
	CompanyName    string `json:"company_name"`
	JobTitle       string `json:"job_title"`
	JobDescription string `json:"job_description,omitempty"`
	Tone           string `json:"tone,omitempty"`
	ResumeText     string `json:"resume_text,omitempty"`
}

// CoverLetterPayload is a generated cover letter draft.
type CoverLetterPayload struct {
	Greeting      string `json:"greeting"`
	Body          string `json:"body"`
	Closing       string `json:"closing"`
	SignOff       string `json:"sign_off"`
	CandidateName string `json:"candidate_name,omitempty"`
}

// Validate requires the sections every rendered letter needs.
func (p CoverLetterPayload) Validate() error {
	for name, val := range map[string]string{
		"greeting": p.Greeting,
		"body":     p.Body,
		"closing":  p.Closing,
		"sign_off": p.SignOff,
	} {
		if strings.TrimSpace(val) == "" {
			return fmt.Errorf("cover letter payload: %s is required", name)
		}
	}
	return nil
}
