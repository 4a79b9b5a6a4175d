package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"ai-job-bot/internal/applicator"
	"ai-job-bot/internal/config"
	"ai-job-bot/internal/dedup"
	"ai-job-bot/internal/domain/application"
	"ai-job-bot/internal/domain/posting"
	"ai-job-bot/internal/domain/run"
	"ai-job-bot/internal/runlock"
	"ai-job-bot/internal/scorer"
	"ai-job-bot/internal/source"

	"github.com/google/uuid"
)

// ---- in-memory fakes ----

type memRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*run.Run
	errs []run.ErrorRecord
}

func newMemRuns() *memRuns {
	return &memRuns{runs: make(map[uuid.UUID]*run.Run)}
}

func (m *memRuns) CreateRunning(ctx context.Context, r run.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := r
	m.runs[r.ID] = &cp
	return nil
}

func (m *memRuns) UpdateCounters(ctx context.Context, id uuid.UUID, found, filtered, sent int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return errors.New("run not found")
	}
	r.JobsFound, r.JobsFiltered, r.ApplicationsSent = found, filtered, sent
	return nil
}

func (m *memRuns) AppendError(ctx context.Context, rec run.ErrorRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs = append(m.errs, rec)
	return nil
}

func (m *memRuns) Finalize(ctx context.Context, id uuid.UUID, status run.Status, endTime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok || r.Status != run.StatusRunning {
		return errors.New("run not running")
	}
	r.Status = status
	r.EndTime = &endTime
	return nil
}

func (m *memRuns) GetByID(ctx context.Context, id uuid.UUID) (run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return run.Run{}, errors.New("run not found")
	}
	return *r, nil
}

func (m *memRuns) ListRecent(ctx context.Context, limit int) ([]run.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]run.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

func (m *memRuns) FailStaleRunning(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var swept int64
	for _, r := range m.runs {
		if r.Status == run.StatusRunning && r.StartTime.Before(cutoff) {
			r.Status = run.StatusFailed
			swept++
		}
	}
	return swept, nil
}

func (m *memRuns) errorStages() []run.Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]run.Stage, 0, len(m.errs))
	for _, e := range m.errs {
		out = append(out, e.Stage)
	}
	return out
}

type memPostings struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*posting.Posting
	keys map[string]uuid.UUID
}

func newMemPostings() *memPostings {
	return &memPostings{
		byID: make(map[uuid.UUID]*posting.Posting),
		keys: make(map[string]uuid.UUID),
	}
}

func (m *memPostings) Create(ctx context.Context, p posting.Posting) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := p.Identity().Key()
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	cp := p
	m.byID[p.ID] = &cp
	m.keys[key] = p.ID
	return true, nil
}

func (m *memPostings) SetScore(ctx context.Context, id uuid.UUID, score int, rationale string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return errors.New("posting not found")
	}
	if p.Score == nil {
		p.Score = &score
		p.ScoreRationale = &rationale
	}
	return nil
}

func (m *memPostings) GetByIdentity(ctx context.Context, ident posting.Identity) (posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.keys[ident.Key()]
	if !ok {
		return posting.Posting{}, errors.New("posting not found")
	}
	return *m.byID[id], nil
}

func (m *memPostings) ListRecent(ctx context.Context, limit, offset int) ([]posting.Posting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]posting.Posting, 0, len(m.byID))
	for _, p := range m.byID {
		out = append(out, *p)
	}
	return out, nil
}

type memApps struct {
	mu   sync.Mutex
	apps []application.Application
}

func (m *memApps) Create(ctx context.Context, a application.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.apps = append(m.apps, a)
	return nil
}

func (m *memApps) ListRecent(ctx context.Context, limit, offset int) ([]application.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]application.Application(nil), m.apps...), nil
}

func (m *memApps) MarkResponseReceived(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (m *memApps) byStatus(status application.Status) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, a := range m.apps {
		if a.Status == status {
			n++
		}
	}
	return n
}

type memDedupRepo struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func newMemDedupRepo() *memDedupRepo {
	return &memDedupRepo{seen: make(map[string]struct{})}
}

func (m *memDedupRepo) IsSeen(ctx context.Context, ident posting.Identity) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.seen[ident.Key()]
	return ok, nil
}

func (m *memDedupRepo) MarkSeen(ctx context.Context, ident posting.Identity, runID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen[ident.Key()] = struct{}{}
	return nil
}

type memLocks struct {
	mu      sync.Mutex
	holder  uuid.UUID
	expires time.Time
}

func (m *memLocks) TryAcquire(ctx context.Context, owner uuid.UUID, ttl time.Duration) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if m.holder != uuid.Nil && m.expires.After(now) {
		return false, false, nil
	}
	wasExpired := m.holder != uuid.Nil
	m.holder = owner
	m.expires = now.Add(ttl)
	return true, wasExpired, nil
}

func (m *memLocks) Release(ctx context.Context, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.holder == owner {
		m.holder = uuid.Nil
	}
	return nil
}

type stubAdapter struct {
	name     string
	postings []posting.Posting
	err      error
	gate     chan struct{}
}

func (s *stubAdapter) Name() string { return s.name }

func (s *stubAdapter) Fetch(ctx context.Context, q source.Query) ([]posting.Posting, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return append([]posting.Posting(nil), s.postings...), nil
}

// stubScorer maps external id to a fixed score.
type stubScorer struct {
	scores map[string]int
	fail   map[string]bool
}

func (s *stubScorer) Score(ctx context.Context, p posting.Posting, profile scorer.Profile) (int, string, error) {
	if s.fail[p.ExternalID] {
		return 0, "", fmt.Errorf("%w: stub failure", scorer.ErrScoring)
	}
	score, ok := s.scores[p.ExternalID]
	if !ok {
		score = 5
	}
	return score, "stubbed", nil
}

// stubApplicator records submission order.
type stubApplicator struct {
	mu       sync.Mutex
	outcomes map[string]applicator.Outcome
	order    []string
}

func (s *stubApplicator) Apply(ctx context.Context, p posting.Posting, applicant config.ApplicantConfig) applicator.Outcome {
	s.mu.Lock()
	s.order = append(s.order, p.ExternalID)
	s.mu.Unlock()
	if s.outcomes != nil {
		if out, ok := s.outcomes[p.ExternalID]; ok {
			return out
		}
	}
	return applicator.Outcome{Disposition: applicator.Submitted, Message: "ok"}
}

func (s *stubApplicator) applied() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// ---- harness ----

type env struct {
	runs  *memRuns
	posts *memPostings
	apps  *memApps
	locks *memLocks
	appl  *stubApplicator
	orch  *Orchestrator
}

func testConfig() config.Config {
	cfg := config.Config{}
	cfg.Pipeline = config.PipelineConfig{
		MaxJobsPerRun:         20,
		MaxApplicationsPerRun: 10,
		ScoreThreshold:        6,
		SourceTimeout:         5 * time.Second,
		RunLockTTL:            time.Minute,
	}
	cfg.Scorer.Workers = 2
	cfg.Search.Keywords = []string{"go"}
	cfg.Search.Location = "Remote"
	return cfg
}

func newEnv(t *testing.T, cfg config.Config, adapters []source.Adapter, sc scorer.Scorer) *env {
	t.Helper()
	logger := log.New(io.Discard, "", 0)

	e := &env{
		runs:  newMemRuns(),
		posts: newMemPostings(),
		apps:  &memApps{},
		locks: &memLocks{},
		appl:  &stubApplicator{},
	}
	guard := runlock.NewGuard(e.locks, e.runs, cfg.Pipeline.RunLockTTL, logger)
	e.orch = New(cfg, Deps{
		Guard:      guard,
		Runs:       e.runs,
		Postings:   e.posts,
		Apps:       e.apps,
		Dedup:      dedup.New(newMemDedupRepo(), nil, logger),
		Adapters:   adapters,
		Scorer:     sc,
		Applicator: e.appl,
		Logger:     logger,
	})
	return e
}

func mkPosting(source, id, title string) posting.Posting {
	return posting.Posting{
		Source:     source,
		ExternalID: id,
		Title:      title,
		Company:    "Acme",
		Location:   "Remote",
		URL:        "https://example.com/" + id,
	}
}

// ---- tests ----

func TestRunOnce_CountersAndSelection(t *testing.T) {
	cfg := testConfig()
	adapters := []source.Adapter{&stubAdapter{name: "alpha", postings: []posting.Posting{
		mkPosting("alpha", "a1", "Go Engineer"),
		mkPosting("alpha", "a2", "Platform Engineer"),
		mkPosting("alpha", "a3", "Sales Rep"),
		mkPosting("alpha", "a4", "Backend Engineer"),
	}}}
	sc := &stubScorer{scores: map[string]int{"a1": 9, "a2": 7, "a3": 4, "a4": 8}}

	e := newEnv(t, cfg, adapters, sc)
	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.Status != run.StatusCompleted {
		t.Fatalf("status = %s", final.Status)
	}
	if final.JobsFound != 4 || final.JobsFiltered != 3 || final.ApplicationsSent != 3 {
		t.Fatalf("counters found=%d filtered=%d sent=%d", final.JobsFound, final.JobsFiltered, final.ApplicationsSent)
	}

	// Submissions follow score order: 9, 8, 7.
	want := []string{"a1", "a4", "a2"}
	got := e.appl.applied()
	if len(got) != len(want) {
		t.Fatalf("applied %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("submission order %v, want %v", got, want)
		}
	}

	persisted, err := e.runs.GetByID(context.Background(), final.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if persisted.Status != run.StatusCompleted || persisted.EndTime == nil {
		t.Fatalf("persisted run not finalized: %+v", persisted)
	}
}

func TestRunOnce_ApplicationCeiling(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.MaxApplicationsPerRun = 3

	var postings []posting.Posting
	scores := map[string]int{}
	for i := 1; i <= 5; i++ {
		id := fmt.Sprintf("p%d", i)
		postings = append(postings, mkPosting("alpha", id, "Go Engineer"))
		scores[id] = 8
	}

	e := newEnv(t, cfg, []source.Adapter{&stubAdapter{name: "alpha", postings: postings}}, &stubScorer{scores: scores})
	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.JobsFiltered != 5 {
		t.Fatalf("filtered = %d", final.JobsFiltered)
	}
	if final.ApplicationsSent != 3 {
		t.Fatalf("sent = %d", final.ApplicationsSent)
	}
	if n := len(e.appl.applied()); n != 3 {
		t.Fatalf("attempted %d submissions", n)
	}
}

func TestRunOnce_FilteredSetCap(t *testing.T) {
	cfg := testConfig()
	cfg.Pipeline.MaxJobsPerRun = 2
	cfg.Pipeline.MaxApplicationsPerRun = 10

	var postings []posting.Posting
	scores := map[string]int{}
	for i := 1; i <= 4; i++ {
		id := fmt.Sprintf("p%d", i)
		postings = append(postings, mkPosting("alpha", id, "Go Engineer"))
		scores[id] = 6 + i
	}

	e := newEnv(t, cfg, []source.Adapter{&stubAdapter{name: "alpha", postings: postings}}, &stubScorer{scores: scores})
	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.JobsFiltered != 2 {
		t.Fatalf("filtered = %d, want cap of 2", final.JobsFiltered)
	}
	// Highest scores survive the cap: p4 (10) then p3 (9).
	got := e.appl.applied()
	if len(got) != 2 || got[0] != "p4" || got[1] != "p3" {
		t.Fatalf("applied %v", got)
	}
}

func TestRunOnce_DedupAcrossRuns(t *testing.T) {
	cfg := testConfig()
	adapter := &stubAdapter{name: "alpha", postings: []posting.Posting{
		mkPosting("alpha", "a1", "Go Engineer"),
		mkPosting("alpha", "a2", "Go Developer"),
	}}
	sc := &stubScorer{scores: map[string]int{"a1": 8, "a2": 8}}

	e := newEnv(t, cfg, []source.Adapter{adapter}, sc)

	first, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.JobsFiltered != 2 || first.ApplicationsSent != 2 {
		t.Fatalf("first run filtered=%d sent=%d", first.JobsFiltered, first.ApplicationsSent)
	}

	second, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.JobsFound != 2 {
		t.Fatalf("second run found=%d; duplicates still count as found", second.JobsFound)
	}
	if second.JobsFiltered != 0 || second.ApplicationsSent != 0 {
		t.Fatalf("second run reprocessed seen postings: filtered=%d sent=%d", second.JobsFiltered, second.ApplicationsSent)
	}
	if n := len(e.appl.applied()); n != 2 {
		t.Fatalf("total submissions = %d", n)
	}
}

func TestRunOnce_DuplicateWithinRun(t *testing.T) {
	cfg := testConfig()
	dup := mkPosting("alpha", "a1", "Go Engineer")
	e := newEnv(t, cfg,
		[]source.Adapter{&stubAdapter{name: "alpha", postings: []posting.Posting{dup, dup}}},
		&stubScorer{scores: map[string]int{"a1": 8}},
	)

	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if final.JobsFound != 2 {
		t.Fatalf("found = %d", final.JobsFound)
	}
	if final.JobsFiltered != 1 || final.ApplicationsSent != 1 {
		t.Fatalf("duplicate within run not collapsed: filtered=%d sent=%d", final.JobsFiltered, final.ApplicationsSent)
	}
}

func TestRunOnce_FailingSourceIsolated(t *testing.T) {
	cfg := testConfig()
	adapters := []source.Adapter{
		&stubAdapter{name: "alpha", err: errors.New("connection refused")},
		&stubAdapter{name: "beta", postings: []posting.Posting{mkPosting("beta", "b1", "Go Engineer")}},
	}
	e := newEnv(t, cfg, adapters, &stubScorer{scores: map[string]int{"b1": 8}})

	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if final.Status != run.StatusCompleted {
		t.Fatalf("status = %s; one healthy source should carry the run", final.Status)
	}
	if final.JobsFound != 1 || final.ApplicationsSent != 1 {
		t.Fatalf("found=%d sent=%d", final.JobsFound, final.ApplicationsSent)
	}

	var fetchErrs int
	for _, stage := range e.runs.errorStages() {
		if stage == run.StageFetch {
			fetchErrs++
		}
	}
	if fetchErrs != 1 {
		t.Fatalf("expected 1 fetch error recorded, got %d", fetchErrs)
	}
}

func TestRunOnce_AllSourcesFailed(t *testing.T) {
	cfg := testConfig()
	adapters := []source.Adapter{
		&stubAdapter{name: "alpha", err: errors.New("down")},
		&stubAdapter{name: "beta", err: errors.New("down")},
	}
	e := newEnv(t, cfg, adapters, &stubScorer{})

	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if final.Status != run.StatusFailed {
		t.Fatalf("status = %s, want failed when every source is down", final.Status)
	}

	// Lock must be free again even after a failed run.
	if _, err := e.orch.RunOnce(context.Background(), "test"); err != nil {
		t.Fatalf("lock not released after failed run: %v", err)
	}
}

func TestRunOnce_ScorerFailureExcludesPosting(t *testing.T) {
	cfg := testConfig()
	e := newEnv(t, cfg,
		[]source.Adapter{&stubAdapter{name: "alpha", postings: []posting.Posting{
			mkPosting("alpha", "a1", "Go Engineer"),
			mkPosting("alpha", "a2", "Go Developer"),
		}}},
		&stubScorer{scores: map[string]int{"a1": 8, "a2": 8}, fail: map[string]bool{"a2": true}},
	)

	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if final.Status != run.StatusCompleted {
		t.Fatalf("status = %s", final.Status)
	}
	if final.JobsFiltered != 1 || final.ApplicationsSent != 1 {
		t.Fatalf("filtered=%d sent=%d", final.JobsFiltered, final.ApplicationsSent)
	}

	var scoreErrs int
	for _, stage := range e.runs.errorStages() {
		if stage == run.StageScore {
			scoreErrs++
		}
	}
	if scoreErrs != 1 {
		t.Fatalf("expected 1 score error, got %d", scoreErrs)
	}
}

func TestRunOnce_ApplicatorOutcomesRecorded(t *testing.T) {
	cfg := testConfig()
	e := newEnv(t, cfg,
		[]source.Adapter{&stubAdapter{name: "alpha", postings: []posting.Posting{
			mkPosting("alpha", "a1", "Go Engineer"),
			mkPosting("alpha", "a2", "Go Developer"),
			mkPosting("alpha", "a3", "Go Architect"),
		}}},
		&stubScorer{scores: map[string]int{"a1": 9, "a2": 8, "a3": 7}},
	)
	e.appl.outcomes = map[string]applicator.Outcome{
		"a2": {Disposition: applicator.NeedsManual, Message: "captcha"},
		"a3": {Disposition: applicator.Failed, Message: "submit timeout", Err: errors.New("timeout")},
	}

	final, err := e.orch.RunOnce(context.Background(), "test")
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if final.ApplicationsSent != 1 {
		t.Fatalf("sent = %d; only clean submissions count", final.ApplicationsSent)
	}
	if n := e.apps.byStatus(application.StatusSubmitted); n != 1 {
		t.Fatalf("submitted records = %d", n)
	}
	if n := e.apps.byStatus(application.StatusNeedsManual); n != 1 {
		t.Fatalf("needs_manual records = %d", n)
	}
	if n := e.apps.byStatus(application.StatusFailed); n != 1 {
		t.Fatalf("failed records = %d", n)
	}
}

func TestStartRun_SecondTriggerFailsFast(t *testing.T) {
	cfg := testConfig()
	gate := make(chan struct{})
	adapter := &stubAdapter{name: "alpha", gate: gate, postings: []posting.Posting{
		mkPosting("alpha", "a1", "Go Engineer"),
	}}
	e := newEnv(t, cfg, []source.Adapter{adapter}, &stubScorer{scores: map[string]int{"a1": 8}})

	first, err := e.orch.StartRun(context.Background(), "api")
	if err != nil {
		t.Fatalf("first trigger: %v", err)
	}

	if _, err := e.orch.StartRun(context.Background(), "api"); !errors.Is(err, runlock.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	close(gate)

	deadline := time.After(5 * time.Second)
	for {
		got, err := e.runs.GetByID(context.Background(), first.ID)
		if err == nil && got.Status.Terminal() {
			if got.Status != run.StatusCompleted {
				t.Fatalf("background run status = %s", got.Status)
			}
			break
		}
		select {
		case <-deadline:
			t.Fatal("background run never finalized")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Lock is free again after the background run finishes.
	if _, err := e.orch.RunOnce(context.Background(), "api"); err != nil {
		t.Fatalf("reacquire after completion: %v", err)
	}
}

func TestSelectTop_OrderAndThreshold(t *testing.T) {
	scored := []scoredPosting{
		{posting: mkPosting("s", "a", "t"), score: 9, order: 0},
		{posting: mkPosting("s", "b", "t"), score: 7, order: 1},
		{posting: mkPosting("s", "c", "t"), score: 4, order: 2},
		{posting: mkPosting("s", "d", "t"), score: 8, order: 3},
		{posting: mkPosting("s", "e", "t"), score: 8, order: 4},
	}

	top := selectTop(scored, 6, 10)
	want := []string{"a", "d", "e", "b"}
	if len(top) != len(want) {
		t.Fatalf("kept %d, want %d", len(top), len(want))
	}
	for i, sp := range top {
		if sp.posting.ExternalID != want[i] {
			t.Fatalf("position %d = %s, want %s", i, sp.posting.ExternalID, want[i])
		}
	}

	capped := selectTop(scored, 6, 2)
	if len(capped) != 2 || capped[0].posting.ExternalID != "a" || capped[1].posting.ExternalID != "d" {
		t.Fatalf("capped selection wrong: %+v", capped)
	}
}
