// Package orchestrator runs the full pipeline: fetch postings from every
// source, drop what earlier runs already saw, score and filter the rest,
// then submit applications one at a time. At most one run executes at any
// moment; overlapping triggers fail fast.
package orchestrator

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ai-job-bot/internal/applicator"
	"ai-job-bot/internal/config"
	"ai-job-bot/internal/dedup"
	"ai-job-bot/internal/domain/application"
	"ai-job-bot/internal/domain/posting"
	"ai-job-bot/internal/domain/run"
	"ai-job-bot/internal/repository"
	"ai-job-bot/internal/runlock"
	"ai-job-bot/internal/scorer"
	"ai-job-bot/internal/source"
	"ai-job-bot/internal/throttle"

	"github.com/google/uuid"
)

// Notifier receives run progress events. Implementations must not block;
// the websocket hub satisfies this.
type Notifier interface {
	RunStarted(r run.Run)
	StageDone(runID uuid.UUID, stage run.Stage, detail string)
	RunFinished(r run.Run)
}

type Deps struct {
	Guard      *runlock.Guard
	Runs       repository.RunRepository
	Postings   repository.PostingRepository
	Apps       repository.ApplicationRepository
	Dedup      *dedup.Deduplicator
	Adapters   []source.Adapter
	Scorer     scorer.Scorer
	Applicator applicator.Applicator
	Notifier   Notifier
	Logger     *log.Logger
}

type Orchestrator struct {
	cfg      config.Config
	guard    *runlock.Guard
	runs     repository.RunRepository
	postings repository.PostingRepository
	apps     repository.ApplicationRepository
	dedup    *dedup.Deduplicator
	adapters []source.Adapter
	scorer   scorer.Scorer
	profile  scorer.Profile
	applier  applicator.Applicator
	notifier Notifier
	logger   *log.Logger
}

func New(cfg config.Config, d Deps) *Orchestrator {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		cfg:      cfg,
		guard:    d.Guard,
		runs:     d.Runs,
		postings: d.Postings,
		apps:     d.Apps,
		dedup:    d.Dedup,
		adapters: d.Adapters,
		scorer:   d.Scorer,
		profile:  scorer.ProfileFromConfig(cfg),
		applier:  d.Applicator,
		notifier: d.Notifier,
		logger:   logger,
	}
}

// StartRun claims the run lock, records a running run and executes the
// pipeline in the background. Returns runlock.ErrAlreadyRunning without
// queueing when another run holds the lock.
func (o *Orchestrator) StartRun(ctx context.Context, trigger string) (run.Run, error) {
	rn, owner, err := o.begin(ctx, trigger)
	if err != nil {
		return run.Run{}, err
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.Background(), o.guard.TTL())
		defer cancel()
		o.execute(runCtx, rn, owner)
	}()

	return rn, nil
}

// RunOnce executes the pipeline synchronously and returns the finished run.
// Used by the one-shot binary.
func (o *Orchestrator) RunOnce(ctx context.Context, trigger string) (run.Run, error) {
	rn, owner, err := o.begin(ctx, trigger)
	if err != nil {
		return run.Run{}, err
	}
	runCtx, cancel := context.WithTimeout(ctx, o.guard.TTL())
	defer cancel()
	return o.execute(runCtx, rn, owner), nil
}

func (o *Orchestrator) begin(ctx context.Context, trigger string) (run.Run, uuid.UUID, error) {
	owner, err := o.guard.Acquire(ctx)
	if err != nil {
		return run.Run{}, uuid.Nil, err
	}

	rn := run.Run{
		ID:            uuid.New(),
		Status:        run.StatusRunning,
		TriggerSource: trigger,
		StartTime:     time.Now().UTC(),
	}
	if err := o.runs.CreateRunning(ctx, rn); err != nil {
		o.guard.Release(owner)
		return run.Run{}, uuid.Nil, err
	}
	return rn, owner, nil
}

func (o *Orchestrator) execute(ctx context.Context, rn run.Run, owner uuid.UUID) run.Run {
	defer o.guard.Release(owner)

	o.logger.Printf("pipeline=run step=start run=%s trigger=%s", rn.ID, rn.TriggerSource)
	if o.notifier != nil {
		o.notifier.RunStarted(rn)
	}

	fetched, failedSources := o.fetchAll(ctx, rn)
	rn.JobsFound = len(fetched)
	o.updateCounters(rn)
	o.stageDone(rn.ID, run.StageFetch, "postings fetched")

	// A run with every source down produced nothing and can only fail.
	if len(o.adapters) > 0 && failedSources == len(o.adapters) {
		return o.finalize(rn, run.StatusFailed)
	}

	fresh := o.dedupeAll(ctx, rn, fetched)
	o.stageDone(rn.ID, run.StageDedupe, "new postings kept")

	filtered := o.scoreAndFilter(ctx, rn, fresh)
	rn.JobsFiltered = len(filtered)
	o.updateCounters(rn)
	o.stageDone(rn.ID, run.StageScore, "postings above threshold")

	rn.ApplicationsSent = o.applyAll(ctx, rn, filtered)
	o.updateCounters(rn)
	o.stageDone(rn.ID, run.StageApply, "applications submitted")

	return o.finalize(rn, run.StatusCompleted)
}

// fetchAll queries every adapter concurrently, each under its own timeout.
// The merged slice preserves adapter declaration order, which fixes the
// deterministic discovery order downstream stages rely on.
func (o *Orchestrator) fetchAll(ctx context.Context, rn run.Run) ([]posting.Posting, int) {
	q := source.Query{
		Keywords: o.cfg.Search.Keywords,
		Location: o.cfg.Search.Location,
		MaxJobs:  o.cfg.Pipeline.MaxJobsPerRun,
	}

	perSource := make([][]posting.Posting, len(o.adapters))
	var failed int32
	var wg sync.WaitGroup
	for i, ad := range o.adapters {
		wg.Add(1)
		go func(i int, ad source.Adapter) {
			defer wg.Done()
			srcCtx, cancel := context.WithTimeout(ctx, o.cfg.Pipeline.SourceTimeout)
			defer cancel()

			got, err := ad.Fetch(srcCtx, q)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				o.recordError(rn.ID, run.StageFetch, ad.Name(), err.Error())
				o.logger.Printf("pipeline=run step=fetch run=%s source=%s status=error err=%v", rn.ID, ad.Name(), err)
				return
			}
			perSource[i] = got
			o.logger.Printf("pipeline=run step=fetch run=%s source=%s status=ok count=%d", rn.ID, ad.Name(), len(got))
		}(i, ad)
	}
	wg.Wait()

	merged := make([]posting.Posting, 0)
	for _, batch := range perSource {
		merged = append(merged, batch...)
	}
	return merged, int(atomic.LoadInt32(&failed))
}

// dedupeAll keeps only postings no prior run has seen, persisting each kept
// posting and marking it seen. Items move through in discovery order.
func (o *Orchestrator) dedupeAll(ctx context.Context, rn run.Run, fetched []posting.Posting) []posting.Posting {
	inRun := make(map[string]struct{}, len(fetched))
	fresh := make([]posting.Posting, 0, len(fetched))

	for _, p := range fetched {
		res := o.dedupeOne(ctx, rn, &p, inRun)
		switch res.Verdict {
		case VerdictOk:
			fresh = append(fresh, p)
		case VerdictFatal:
			o.recordError(rn.ID, run.StageDedupe, p.Identity().Key(), res.Err.Error())
		}
	}
	return fresh
}

func (o *Orchestrator) dedupeOne(ctx context.Context, rn run.Run, p *posting.Posting, inRun map[string]struct{}) ItemResult {
	ident := p.Identity()
	if !ident.Valid() {
		return itemSkipped("incomplete identity")
	}
	if _, dup := inRun[ident.Key()]; dup {
		return itemSkipped("duplicate within run")
	}
	inRun[ident.Key()] = struct{}{}

	isNew, err := o.dedup.IsNew(ctx, ident)
	if err != nil {
		return itemFatal(err)
	}
	if !isNew {
		return itemSkipped("seen by a prior run")
	}

	p.ID = uuid.New()
	runID := rn.ID
	p.RunID = &runID
	inserted, err := o.postings.Create(ctx, *p)
	if err != nil {
		return itemFatal(err)
	}
	if !inserted {
		// Persisted by an earlier run but missing from the seen index;
		// repair the index and move on.
		if err := o.dedup.MarkSeen(ctx, ident, rn.ID); err != nil {
			return itemFatal(err)
		}
		return itemSkipped("already persisted")
	}

	if err := o.dedup.MarkSeen(ctx, ident, rn.ID); err != nil {
		return itemFatal(err)
	}
	return itemOk()
}

type scoredPosting struct {
	posting posting.Posting
	score   int
	order   int
}

// scoreAndFilter scores fresh postings on a bounded worker pool, keeps those
// at or above the threshold and returns the top slice: best score first,
// discovery order breaking ties, capped at the per-run posting budget.
func (o *Orchestrator) scoreAndFilter(ctx context.Context, rn run.Run, fresh []posting.Posting) []scoredPosting {
	if len(fresh) == 0 {
		return nil
	}

	pool := throttle.NewPool(o.cfg.Scorer.Workers, len(fresh))
	results := pool.Run(ctx)

	var mu sync.Mutex
	scored := make([]scoredPosting, 0, len(fresh))

	for i, p := range fresh {
		i, p := i, p
		pool.Submit(func(ctx context.Context) error {
			score, rationale, err := o.scorer.Score(ctx, p, o.profile)
			if err != nil {
				o.recordError(rn.ID, run.StageScore, p.Identity().Key(), err.Error())
				return err
			}
			if err := o.postings.SetScore(ctx, p.ID, score, rationale); err != nil {
				o.recordError(rn.ID, run.StageScore, p.Identity().Key(), err.Error())
				return err
			}
			mu.Lock()
			scored = append(scored, scoredPosting{posting: p, score: score, order: i})
			mu.Unlock()
			return nil
		})
	}
	pool.Close()
	for range results {
	}

	return selectTop(scored, o.cfg.Pipeline.ScoreThreshold, o.cfg.Pipeline.MaxJobsPerRun)
}

func selectTop(scored []scoredPosting, threshold, limit int) []scoredPosting {
	kept := make([]scoredPosting, 0, len(scored))
	for _, sp := range scored {
		if sp.score >= threshold {
			kept = append(kept, sp)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].order < kept[j].order
	})
	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

// applyAll submits applications strictly one at a time, paced between
// attempts. Failures are recorded and skipped; submission stops once the
// per-run application ceiling is reached.
func (o *Orchestrator) applyAll(ctx context.Context, rn run.Run, filtered []scoredPosting) int {
	pacer := throttle.NewPacer(o.cfg.Pipeline.ApplicationDelay, o.cfg.Pipeline.RandomDelays)
	ceiling := o.cfg.Pipeline.MaxApplicationsPerRun

	sent := 0
	for _, sp := range filtered {
		if ceiling > 0 && sent >= ceiling {
			break
		}
		if err := pacer.Wait(ctx); err != nil {
			o.recordError(rn.ID, run.StageApply, sp.posting.Identity().Key(), "run deadline hit before submission")
			break
		}

		outcome := o.applier.Apply(ctx, sp.posting, o.cfg.Applicant)
		now := time.Now().UTC()
		app := application.Application{
			ID:        uuid.New(),
			PostingID: sp.posting.ID,
			RunID:     rn.ID,
			Message:   outcome.Message,
		}

		switch outcome.Disposition {
		case applicator.Submitted:
			app.Status = application.StatusSubmitted
			app.SubmittedAt = &now
			sent++
		case applicator.NeedsManual:
			app.Status = application.StatusNeedsManual
		default:
			app.Status = application.StatusFailed
			if outcome.Err != nil {
				app.Error = outcome.Err.Error()
			}
			o.recordError(rn.ID, run.StageApply, sp.posting.Identity().Key(), outcome.Message)
		}

		if err := o.apps.Create(ctx, app); err != nil {
			o.recordError(rn.ID, run.StageApply, sp.posting.Identity().Key(), err.Error())
		}
		o.logger.Printf("pipeline=run step=apply run=%s posting=%s status=%s", rn.ID, sp.posting.Identity().Key(), app.Status)
	}
	return sent
}

// finalize moves the run to its terminal state on a fresh context, so a
// pipeline killed by its own deadline still gets a proper end record.
func (o *Orchestrator) finalize(rn run.Run, status run.Status) run.Run {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	end := time.Now().UTC()
	rn.Status = status
	rn.EndTime = &end

	if err := o.runs.UpdateCounters(ctx, rn.ID, rn.JobsFound, rn.JobsFiltered, rn.ApplicationsSent); err != nil {
		o.logger.Printf("pipeline=run step=finalize run=%s status=counters_error err=%v", rn.ID, err)
	}
	if err := o.runs.Finalize(ctx, rn.ID, status, end); err != nil {
		o.logger.Printf("pipeline=run step=finalize run=%s status=error err=%v", rn.ID, err)
	}

	o.logger.Printf("pipeline=run step=finish run=%s status=%s found=%d filtered=%d sent=%d",
		rn.ID, status, rn.JobsFound, rn.JobsFiltered, rn.ApplicationsSent)
	if o.notifier != nil {
		o.notifier.RunFinished(rn)
	}
	return rn
}

func (o *Orchestrator) updateCounters(rn run.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.runs.UpdateCounters(ctx, rn.ID, rn.JobsFound, rn.JobsFiltered, rn.ApplicationsSent); err != nil {
		o.logger.Printf("pipeline=run step=counters run=%s status=error err=%v", rn.ID, err)
	}
}

func (o *Orchestrator) stageDone(runID uuid.UUID, stage run.Stage, detail string) {
	if o.notifier != nil {
		o.notifier.StageDone(runID, stage, detail)
	}
}

// recordError appends a non-fatal failure to the run's error log. Uses its
// own context so error logging survives pipeline cancellation.
func (o *Orchestrator) recordError(runID uuid.UUID, stage run.Stage, itemKey, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec := run.ErrorRecord{
		RunID:      runID,
		Stage:      stage,
		ItemKey:    itemKey,
		Message:    message,
		OccurredAt: time.Now().UTC(),
	}
	if err := o.runs.AppendError(ctx, rec); err != nil {
		o.logger.Printf("pipeline=run step=error_log run=%s stage=%s status=error err=%v", runID, stage, err)
	}
}
