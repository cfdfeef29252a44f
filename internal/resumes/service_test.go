package resumes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/opencodeiiita/careercraft-backend/internal/ml"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/cache"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/storage/object"
	"github.com/opencodeiiita/careercraft-backend/internal/shared/util"
)

type fakeStore struct {
	storeCalls  int
	deleteCalls []string // deletable IDs, in order
	deleteHints []string
	storeErr    error
	deleteErr   error
}

func (f *fakeStore) Store(ctx context.Context, ownerID, fileName, mimeType string, r io.Reader) (object.StoredObject, error) {
	f.storeCalls++
	if f.storeErr != nil {
		return object.StoredObject{}, f.storeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return object.StoredObject{}, err
	}
	id := fmt.Sprintf("obj-%d", f.storeCalls)
	return object.StoredObject{
		URL:         "https://files.example.com/" + id,
		DeletableID: id,
		MimeType:    mimeType,
		SizeBytes:   int64(len(data)),
	}, nil
}

func (f *fakeStore) Delete(ctx context.Context, deletableID, resourceHint string) error {
	f.deleteCalls = append(f.deleteCalls, deletableID)
	f.deleteHints = append(f.deleteHints, resourceHint)
	return f.deleteErr
}

func (f *fakeStore) Open(ctx context.Context, deletableID string) (io.ReadCloser, error) {
	return nil, errors.New("not implemented")
}

type countingML struct {
	extractCalls int
	analyzeCalls int
	matchCalls   int

	extractErr error
	analyzeErr error
	matchErr   error

	analysis ml.AnalysisPayload
	match    ml.JobMatchPayload
}

func (c *countingML) ExtractText(ctx context.Context, file []byte, fileName, mimeType string) (string, error) {
	c.extractCalls++
	if c.extractErr != nil {
		return "", c.extractErr
	}
	return "extracted text of " + fileName, nil
}

func (c *countingML) Analyze(ctx context.Context, resumeText string) (ml.AnalysisPayload, error) {
	c.analyzeCalls++
	if c.analyzeErr != nil {
		return ml.AnalysisPayload{}, c.analyzeErr
	}
	return c.analysis, nil
}

func (c *countingML) Match(ctx context.Context, resumeText, jobDescription string) (ml.JobMatchPayload, error) {
	c.matchCalls++
	if c.matchErr != nil {
		return ml.JobMatchPayload{}, c.matchErr
	}
	return c.match, nil
}

func (c *countingML) GenerateCoverLetter(ctx context.Context, req ml.CoverLetterRequest) (ml.CoverLetterPayload, error) {
	return ml.CoverLetterPayload{}, errors.New("not implemented")
}

// failRepo fails Create while delegating reads to an inner repo.
type failRepo struct {
	Repo
	createErr error
	deleteErr error
}

func (r *failRepo) Create(ctx context.Context, resume Resume) error {
	if r.createErr != nil {
		return r.createErr
	}
	return r.Repo.Create(ctx, resume)
}

func (r *failRepo) Delete(ctx context.Context, id string) error {
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.Repo.Delete(ctx, id)
}

func newUploadService(store *fakeStore, client *countingML, c cache.Cache) (*Service, *MemoryRepo) {
	repo := NewMemoryRepo()
	return &Service{
		Repo:  repo,
		Store: store,
		Cache: c,
		ML:    client,
		now:   func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) },
	}, repo
}

func scoredAnalysis(score int) ml.AnalysisPayload {
	return ml.AnalysisPayload{ATSScore: score, Summary: "solid resume", Skills: []string{"go"}}
}

func TestUploadHappyPath(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analysis: scoredAnalysis(82)}
	svc, repo := newUploadService(store, client, cache.NewMemory())

	fileBytes := []byte("resume body")
	record, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if record.ID == "" {
		t.Fatal("expected assigned id")
	}
	if record.ResumeName != "resume.pdf" {
		t.Fatalf("resume name = %q, want filename fallback", record.ResumeName)
	}
	if record.ContentDigest != util.DigestBytes(fileBytes) {
		t.Fatalf("content digest = %q", record.ContentDigest)
	}
	if record.Analysis.ATSScore != 82 {
		t.Fatalf("ats score = %d", record.Analysis.ATSScore)
	}
	if record.JobMatch != nil {
		t.Fatal("expected no job match without job description")
	}
	if _, err := repo.GetByID(context.Background(), record.ID); err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatalf("unexpected compensation: %v", store.deleteCalls)
	}
}

func TestUploadValidation(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newUploadService(store, &countingML{analysis: scoredAnalysis(80)}, cache.Noop{})

	cases := []struct {
		name     string
		ownerID  string
		file     []byte
		filename string
		mime     string
	}{
		{"missing owner", "", []byte("x"), "r.pdf", "application/pdf"},
		{"empty file", "owner-1", nil, "r.pdf", "application/pdf"},
		{"missing filename", "owner-1", []byte("x"), "", "application/pdf"},
		{"missing mime", "owner-1", []byte("x"), "r.pdf", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), tc.ownerID, tc.file, tc.filename, tc.mime, "", "")
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
	if store.storeCalls != 0 {
		t.Fatalf("store called %d times before validation passed", store.storeCalls)
	}
}

func TestUploadIdenticalBytesHitAnalysisCache(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analysis: scoredAnalysis(75)}
	svc, _ := newUploadService(store, client, cache.NewMemory())

	fileBytes := []byte("same resume bytes")
	first, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", "")
	if err != nil {
		t.Fatalf("first upload: %v", err)
	}

	// A second upload of identical bytes, even by a different user, reuses
	// the cached analysis without touching the gateway.
	second, err := svc.Upload(context.Background(), "owner-2", fileBytes, "copy.pdf", "application/pdf", "", "")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if client.extractCalls != 1 || client.analyzeCalls != 1 {
		t.Fatalf("gateway calls = extract %d, analyze %d; want 1, 1", client.extractCalls, client.analyzeCalls)
	}
	if first.Analysis.ATSScore != second.Analysis.ATSScore {
		t.Fatal("cached analysis differs")
	}
	if first.ContentDigest != second.ContentDigest {
		t.Fatal("identical bytes produced different digests")
	}
	// Each upload still gets its own stored object and record.
	if store.storeCalls != 2 {
		t.Fatalf("store calls = %d", store.storeCalls)
	}
	if first.DeletableID == second.DeletableID {
		t.Fatal("uploads must not share a stored object")
	}
}

func TestUploadSurvivesDisabledCache(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analysis: scoredAnalysis(70)}
	svc, _ := newUploadService(store, client, cache.Noop{})

	fileBytes := []byte("uncached resume")
	for i := 0; i < 2; i++ {
		if _, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", ""); err != nil {
			t.Fatalf("upload %d: %v", i, err)
		}
	}
	if client.analyzeCalls != 2 {
		t.Fatalf("analyze calls = %d, want recomputation every time", client.analyzeCalls)
	}
}

func TestUploadStorageFailureStopsPipeline(t *testing.T) {
	store := &fakeStore{storeErr: errors.New("bucket down")}
	client := &countingML{analysis: scoredAnalysis(70)}
	svc, repo := newUploadService(store, client, cache.NewMemory())

	_, err := svc.Upload(context.Background(), "owner-1", []byte("x"), "resume.pdf", "application/pdf", "", "")
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	if client.extractCalls != 0 {
		t.Fatal("gateway consulted after storage failure")
	}
	if got, _ := repo.ListByOwner(context.Background(), "owner-1"); len(got) != 0 {
		t.Fatal("record persisted after storage failure")
	}
	if len(store.deleteCalls) != 0 {
		t.Fatal("nothing was stored, nothing to compensate")
	}
}

func TestUploadCompensatesOnAnalysisFailure(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analyzeErr: ml.ErrUnavailable}
	svc, repo := newUploadService(store, client, cache.NewMemory())

	_, err := svc.Upload(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "", "")
	if !errors.Is(err, ErrAnalysisService) {
		t.Fatalf("expected ErrAnalysisService, got %v", err)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != "obj-1" {
		t.Fatalf("compensation deletes = %v, want exactly the stored object", store.deleteCalls)
	}
	if store.deleteHints[0] != "raw" {
		t.Fatalf("resource hint = %q", store.deleteHints[0])
	}
	if got, _ := repo.ListByOwner(context.Background(), "owner-1"); len(got) != 0 {
		t.Fatal("record persisted after analysis failure")
	}
}

func TestUploadCompensationFailureDoesNotMaskError(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("delete also down")}
	client := &countingML{analyzeErr: ml.ErrUnavailable}
	svc, _ := newUploadService(store, client, cache.NewMemory())

	_, err := svc.Upload(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "", "")
	if !errors.Is(err, ErrAnalysisService) {
		t.Fatalf("expected the original ErrAnalysisService, got %v", err)
	}
	if len(store.deleteCalls) != 1 {
		t.Fatalf("compensation attempted %d times, want exactly once", len(store.deleteCalls))
	}
}

func TestUploadCompensatesOnPersistenceFailure(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analysis: scoredAnalysis(70)}
	repo := &failRepo{Repo: NewMemoryRepo(), createErr: errors.New("db down")}
	svc := &Service{Repo: repo, Store: store, Cache: cache.NewMemory(), ML: client}

	_, err := svc.Upload(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "", "")
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != "obj-1" {
		t.Fatalf("compensation deletes = %v", store.deleteCalls)
	}
}

func TestUploadJobMatchFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analysis: scoredAnalysis(70), matchErr: ml.ErrUnavailable}
	svc, repo := newUploadService(store, client, cache.NewMemory())

	record, err := svc.Upload(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "", "backend engineer role")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if record.JobMatch != nil {
		t.Fatal("expected nil job match after gateway failure")
	}
	if _, err := repo.GetByID(context.Background(), record.ID); err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatal("job match failure must not trigger compensation")
	}
}

func TestUploadWithJobDescriptionPopulatesBothCaches(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{
		analysis: scoredAnalysis(70),
		match:    ml.JobMatchPayload{MatchScore: 64, MatchedSkills: []string{"go"}},
	}
	mem := cache.NewMemory()
	svc, _ := newUploadService(store, client, mem)

	fileBytes := []byte("resume")
	jobDescription := "backend engineer role"
	record, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", jobDescription)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if record.JobMatch == nil || record.JobMatch.MatchScore != 64 {
		t.Fatalf("job match = %+v", record.JobMatch)
	}

	digest := util.DigestBytes(fileBytes)
	if _, ok := mem.Get(context.Background(), AnalysisCacheKey(digest)); !ok {
		t.Fatal("analysis cache entry missing")
	}
	matchKey := JobMatchCacheKey(digest, util.DigestText(jobDescription))
	if _, ok := mem.Get(context.Background(), matchKey); !ok {
		t.Fatal("job match cache entry missing")
	}

	// Re-upload with the same job description: both results come from cache.
	if _, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", jobDescription); err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if client.analyzeCalls != 1 || client.matchCalls != 1 {
		t.Fatalf("gateway calls = analyze %d, match %d; want 1, 1", client.analyzeCalls, client.matchCalls)
	}
}

func TestUploadReextractsTextForMatchAfterCacheHit(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{
		analysis: scoredAnalysis(70),
		match:    ml.JobMatchPayload{MatchScore: 50},
	}
	svc, _ := newUploadService(store, client, cache.NewMemory())

	fileBytes := []byte("resume")
	// Seed the analysis cache without a job description.
	if _, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", ""); err != nil {
		t.Fatalf("seed upload: %v", err)
	}

	// The analysis arrives from cache so extraction is redone for the match.
	record, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", "new role")
	if err != nil {
		t.Fatalf("matched upload: %v", err)
	}
	if record.JobMatch == nil {
		t.Fatal("expected job match")
	}
	if client.analyzeCalls != 1 {
		t.Fatalf("analyze calls = %d, cache hit expected", client.analyzeCalls)
	}
	if client.extractCalls != 2 {
		t.Fatalf("extract calls = %d, want re-extraction for the match", client.extractCalls)
	}
}

func TestSaveWithAnalysisValidatesBeforeStoring(t *testing.T) {
	store := &fakeStore{}
	svc, _ := newUploadService(store, &countingML{}, cache.Noop{})

	_, err := svc.SaveWithAnalysis(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "", []byte("{not json"))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for malformed JSON, got %v", err)
	}
	_, err = svc.SaveWithAnalysis(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "", []byte(`{"ats_score": 150}`))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for out-of-range score, got %v", err)
	}
	if store.storeCalls != 0 {
		t.Fatalf("store called %d times before validation passed", store.storeCalls)
	}
}

func TestSaveWithAnalysisSkipsGateway(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{}
	svc, repo := newUploadService(store, client, cache.Noop{})

	record, err := svc.SaveWithAnalysis(context.Background(), "owner-1", []byte("resume"), "resume.pdf", "application/pdf", "My Resume", []byte(`{"ats_score": 88, "summary": "good"}`))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if client.extractCalls != 0 || client.analyzeCalls != 0 {
		t.Fatal("gateway consulted for caller-provided analysis")
	}
	if record.Analysis.ATSScore != 88 {
		t.Fatalf("ats score = %d", record.Analysis.ATSScore)
	}
	if record.ResumeName != "My Resume" {
		t.Fatalf("resume name = %q", record.ResumeName)
	}
	if _, err := repo.GetByID(context.Background(), record.ID); err != nil {
		t.Fatalf("record not persisted: %v", err)
	}
}

func TestGetEnforcesOwnership(t *testing.T) {
	store := &fakeStore{}
	svc, repo := newUploadService(store, &countingML{analysis: scoredAnalysis(70)}, cache.Noop{})

	record := Resume{ID: "r-1", OwnerID: "owner-1"}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Get(context.Background(), "r-1", "owner-2"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "missing", "owner-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Get(context.Background(), "r-1", "owner-1"); err != nil {
		t.Fatalf("owner get: %v", err)
	}
}

func TestDeleteRemovesObjectCacheAndRecord(t *testing.T) {
	store := &fakeStore{}
	client := &countingML{analysis: scoredAnalysis(70)}
	mem := cache.NewMemory()
	svc, repo := newUploadService(store, client, mem)

	fileBytes := []byte("resume to delete")
	record, err := svc.Upload(context.Background(), "owner-1", fileBytes, "resume.pdf", "application/pdf", "", "")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	if err := svc.Delete(context.Background(), record.ID, "owner-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleteCalls) != 1 || store.deleteCalls[0] != record.DeletableID {
		t.Fatalf("object deletes = %v", store.deleteCalls)
	}
	if _, ok := mem.Get(context.Background(), AnalysisCacheKey(record.ContentDigest)); ok {
		t.Fatal("analysis cache entry survived delete")
	}
	if _, err := repo.GetByID(context.Background(), record.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("record survived delete: %v", err)
	}
}

func TestDeleteUsesStoredDigestForInvalidation(t *testing.T) {
	store := &fakeStore{}
	mem := cache.NewMemory()
	svc, repo := newUploadService(store, &countingML{}, mem)

	// The record carries the digest computed at upload time. Invalidation
	// must use it even though the raw bytes are long gone.
	digest := util.DigestBytes([]byte("original upload bytes"))
	record := Resume{ID: "r-1", OwnerID: "owner-1", DeletableID: "obj-9", ContentDigest: digest}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mem.Set(context.Background(), AnalysisCacheKey(digest), `{"ats_score": 70}`, time.Hour)

	if err := svc.Delete(context.Background(), "r-1", "owner-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := mem.Get(context.Background(), AnalysisCacheKey(digest)); ok {
		t.Fatal("cache entry for stored digest survived")
	}
}

func TestDeleteAccessDeniedTouchesNothing(t *testing.T) {
	store := &fakeStore{}
	mem := cache.NewMemory()
	svc, repo := newUploadService(store, &countingML{}, mem)

	digest := util.DigestBytes([]byte("bytes"))
	record := Resume{ID: "r-1", OwnerID: "owner-1", DeletableID: "obj-1", ContentDigest: digest}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed: %v", err)
	}
	mem.Set(context.Background(), AnalysisCacheKey(digest), `{"ats_score": 70}`, time.Hour)

	if err := svc.Delete(context.Background(), "r-1", "owner-2"); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
	if len(store.deleteCalls) != 0 {
		t.Fatal("object deleted on denied request")
	}
	if _, ok := mem.Get(context.Background(), AnalysisCacheKey(digest)); !ok {
		t.Fatal("cache invalidated on denied request")
	}
	if _, err := repo.GetByID(context.Background(), "r-1"); err != nil {
		t.Fatalf("record removed on denied request: %v", err)
	}
}

func TestDeleteObjectStoreFailureIsNonFatal(t *testing.T) {
	store := &fakeStore{deleteErr: errors.New("provider down")}
	svc, repo := newUploadService(store, &countingML{}, cache.NewMemory())

	record := Resume{ID: "r-1", OwnerID: "owner-1", DeletableID: "obj-1"}
	if err := repo.Create(context.Background(), record); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Delete(context.Background(), "r-1", "owner-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetByID(context.Background(), "r-1"); !errors.Is(err, ErrNotFound) {
		t.Fatal("record must be removed even when object cleanup fails")
	}
}

func TestDeleteRepoFailureIsFatal(t *testing.T) {
	store := &fakeStore{}
	inner := NewMemoryRepo()
	repo := &failRepo{Repo: inner, deleteErr: errors.New("db down")}
	svc := &Service{Repo: repo, Store: store, Cache: cache.NewMemory(), ML: &countingML{}}

	if err := inner.Create(context.Background(), Resume{ID: "r-1", OwnerID: "owner-1", DeletableID: "obj-1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := svc.Delete(context.Background(), "r-1", "owner-1"); !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
}

func TestResourceHint(t *testing.T) {
	if got := resourceHint("image/png"); got != "image" {
		t.Fatalf("image hint = %q", got)
	}
	if got := resourceHint("application/pdf"); got != "raw" {
		t.Fatalf("pdf hint = %q", got)
	}
	if got := resourceHint("application/vnd.openxmlformats-officedocument.wordprocessingml.document"); got != "raw" {
		t.Fatalf("docx hint = %q", got)
	}
	if got := resourceHint(""); got != "raw" {
		t.Fatalf("empty hint = %q", got)
	}
}
