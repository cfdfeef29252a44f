package coverletters

import "time"

// Letter holds the sections of a rendered cover letter.
type Letter struct {
	Greeting      string `json:"greeting"`
	Body          string `json:"body"`
	Closing       string `json:"closing"`
	SignOff       string `json:"signOff"`
	CandidateName string `json:"candidateName,omitempty"`
}

// CoverLetter is the durable record of a saved cover letter.
type CoverLetter struct {
	ID             string
	OwnerID        string
	CompanyName    string
	JobTitle       string
	JobDescription string
	Tone           string
	Letter         Letter
	CreatedAt      time.Time
}

// DraftCacheKey returns the per-owner cache key for a generated draft. Unlike
// the resume analysis cache, drafts are owner-scoped: generation input
// includes the owner's resume text.
func DraftCacheKey(ownerID, requestDigest string) string {
	return "cover-letter:draft:" + ownerID + ":" + requestDigest
}
