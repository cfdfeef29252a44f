package resumes

import (
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
)

// ResumeResponse is the outward-facing representation of a resume record.
type ResumeResponse struct {
	ID         string              `json:"id"`
	Filename   string              `json:"filename"`
	ResumeName string              `json:"resumeName"`
	URL        string              `json:"url"`
	MimeType   string              `json:"mimeType"`
	SizeBytes  int64               `json:"sizeBytes"`
	ATSScore   int                 `json:"atsScore"`
	Analysis   ml.AnalysisPayload  `json:"analysis"`
	JobMatch   *ml.JobMatchPayload `json:"jobMatch,omitempty"`
	UploadedAt time.Time           `json:"uploadedAt"`
	CreatedAt  time.Time           `json:"createdAt"`
}

func toResponse(record Resume) ResumeResponse {
	return ResumeResponse{
		ID:         record.ID,
		Filename:   record.Filename,
		ResumeName: record.ResumeName,
		URL:        record.URL,
		MimeType:   record.MimeType,
		SizeBytes:  record.SizeBytes,
		ATSScore:   record.Analysis.ATSScore,
		Analysis:   record.Analysis,
		JobMatch:   record.JobMatch,
		UploadedAt: record.UploadedAt,
		CreatedAt:  record.CreatedAt,
	}
}

func toResponseList(records []Resume) []ResumeResponse {
	out := make([]ResumeResponse, 0, len(records))
	for _, record := range records {
		out = append(out, toResponse(record))
	}
	return out
}
