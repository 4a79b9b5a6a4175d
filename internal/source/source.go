// Package source contains the job-site adapters. Sources are a fixed,
// explicit list assembled at startup; there is no runtime plugin
// registration.
package source

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/domain/posting"
)

// ErrSource classifies every adapter failure: network, parse and
// rate-limit errors all wrap it.
var ErrSource = errors.New("source error")

type Query struct {
	Keywords []string
	Location string
	MaxJobs  int
}

type Adapter interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]posting.Posting, error)
}

// BuildAdapters returns the configured adapters in declaration order. The
// order matters: the orchestrator merges fetched postings source by source,
// so it fixes the deterministic discovery order.
func BuildAdapters(cfg config.Config) []Adapter {
	return []Adapter{
		NewRemoteOK(),
		NewIndeed(cfg.Pipeline.SourceDelay),
		NewLinkedIn(cfg.Pipeline.SourceDelay),
	}
}

func sourceErr(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrSource, name, err)
}

// stableExternalID derives a posting id from its link for sources that do
// not expose one of their own.
func stableExternalID(link string) string {
	link = strings.TrimSpace(link)
	if link == "" {
		return ""
	}
	h := sha1.Sum([]byte(link))
	return "urlsha1-" + hex.EncodeToString(h[:])
}

// hostFromBaseURL returns the bare hostname, no port. Colly's domain
// allowlist compares against URL.Hostname().
func hostFromBaseURL(base string) string {
	u, err := url.Parse(strings.TrimSpace(base))
	if err != nil || u.Host == "" {
		return ""
	}
	return u.Hostname()
}

func matchesKeywords(title string, keywords []string) bool {
	if len(keywords) == 0 {
		return true
	}
	t := strings.ToLower(title)
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

func pickNonEmpty(vals ...string) string {
	for _, v := range vals {
		v = strings.TrimSpace(v)
		if v != "" {
			return v
		}
	}
	return ""
}
