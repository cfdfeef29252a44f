package coverletters

import "time"

// GenerateRequest is the request body for draft generation.
type GenerateRequest struct {
	ResumeText     string `json:"resumeText"`
	CompanyName    string `json:"companyName"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	Tone           string `json:"tone"`
}

// SaveRequest is the request body for saving a cover letter. DraftDigest is
// the digest returned by generation; when echoed back the cached draft is
// dropped on save.
type SaveRequest struct {
	CompanyName    string `json:"companyName"`
	JobTitle       string `json:"jobTitle"`
	JobDescription string `json:"jobDescription"`
	Tone           string `json:"tone"`
	Letter         Letter `json:"letter"`
	DraftDigest    string `json:"draftDigest"`
}

// CoverLetterResponse is the outward-facing representation of a saved letter.
type CoverLetterResponse struct {
	ID             string    `json:"id"`
	CompanyName    string    `json:"companyName"`
	JobTitle       string    `json:"jobTitle"`
	JobDescription string    `json:"jobDescription,omitempty"`
	Tone           string    `json:"tone"`
	Letter         Letter    `json:"letter"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toResponse(record CoverLetter) CoverLetterResponse {
	return CoverLetterResponse{
		ID:             record.ID,
		CompanyName:    record.CompanyName,
		JobTitle:       record.JobTitle,
		JobDescription: record.JobDescription,
		Tone:           record.Tone,
		Letter:         record.Letter,
		CreatedAt:      record.CreatedAt,
	}
}

func toResponseList(records []CoverLetter) []CoverLetterResponse {
	out := make([]CoverLetterResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return out
}
