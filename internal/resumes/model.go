package resumes

import (
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
)

// Resume is the durable record of one uploaded resume and its analysis.
//
// OwnerID is immutable after creation. The stored object referenced by
// DeletableID lives exactly as long as the record: the record is only
// persisted after a successful object-store write plus a successful (possibly
// cached) analysis, and the delete path removes the object before the row.
// ContentDigest is computed once from the raw upload bytes and reused
// verbatim for cache invalidation.
type Resume struct {
	ID            string
	OwnerID       string
	Filename      string
	ResumeName    string
	URL           string
	DeletableID   string
	MimeType      string
	SizeBytes     int64
	ContentDigest string
	ResumeText    string
	Analysis      ml.AnalysisPayload
	JobMatch      *ml.JobMatchPayload
	UploadedAt    time.Time
	CreatedAt     time.Time
}

// AnalysisCacheKey returns the cache key memoizing resume analysis for a
// content digest. The key is content-addressed, not user-scoped: identical
// bytes share one computation across users.
func AnalysisCacheKey(contentDigest string) string {
	return "resume-analysis:" + contentDigest
}

// JobMatchCacheKey returns the cache key memoizing a resume/job match.
func JobMatchCacheKey(resumeDigest, jobDigest string) string {
	return "job-match:" + resumeDigest + ":" + jobDigest
}
