package applicator

import (
	"context"
	"log"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/domain/posting"
)

// DryRun records what would have been submitted without opening a browser.
// Used by the one-shot runner's --dry-run flag and by tests.
type DryRun struct {
	logger *log.Logger
}

func NewDryRun(logger *log.Logger) *DryRun { return &DryRun{logger: logger} }

func (d *DryRun) Apply(ctx context.Context, p posting.Posting, applicant config.ApplicantConfig) Outcome {
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	if d.logger != nil {
		d.logger.Printf("applicator=dryrun status=skipped posting=%s url=%s", p.Identity().Key(), p.URL)
	}
	return Outcome{Disposition: Submitted, Message: "dry run, nothing submitted"}
}
