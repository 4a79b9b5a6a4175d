// Package applicator submits applications for filtered postings. Submission
// never parallelizes: one browser session at a time, paced by the
// orchestrator, keeps the traffic profile human.
package applicator

import (
	"context"
	"errors"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/domain/posting"
)

// ErrApplication classifies submission failures: navigation errors, missing
// form fields and submit timeouts all wrap it.
var ErrApplication = errors.New("application error")

// Disposition is the terminal state of one submission attempt.
type Disposition string

const (
	// Submitted means the form was filled and sent.
	Submitted Disposition = "submitted"
	// NeedsManual means the page demands something automation must not
	// fake: a captcha, a login wall, or a multi-step external flow.
	NeedsManual Disposition = "needs_manual"
	// Failed means the attempt errored before reaching a terminal page.
	Failed Disposition = "failed"
)

// Outcome reports one attempt. Message is human-readable and lands in the
// application record; Err is set only for Failed.
type Outcome struct {
	Disposition Disposition
	Message     string
	Err         error
}

type Applicator interface {
	Apply(ctx context.Context, p posting.Posting, applicant config.ApplicantConfig) Outcome
}

func failed(err error) Outcome {
	return Outcome{Disposition: Failed, Message: err.Error(), Err: err}
}

func needsManual(msg string) Outcome {
	return Outcome{Disposition: NeedsManual, Message: msg}
}
