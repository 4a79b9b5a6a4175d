package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"ai-job-bot/internal/domain/posting"

	"github.com/gocolly/colly/v2"
)

// LinkedIn scrapes the guest job search endpoint, which serves plain HTML
// fragments without authentication. Entity URNs carry the numeric job id.
type LinkedIn struct {
	baseURL     string
	allowedHost string
	delay       time.Duration
}

func NewLinkedIn(delay time.Duration) *LinkedIn {
	s := &LinkedIn{baseURL: "https://www.linkedin.com", delay: delay}
	s.allowedHost = hostFromBaseURL(s.baseURL)
	return s
}

func NewLinkedInWithBaseURL(base string) *LinkedIn {
	s := &LinkedIn{baseURL: strings.TrimRight(strings.TrimSpace(base), "/")}
	if s.baseURL == "" {
		s.baseURL = "https://www.linkedin.com"
	}
	s.allowedHost = hostFromBaseURL(s.baseURL)
	return s
}

func (s *LinkedIn) Name() string { return "linkedin" }

func (s *LinkedIn) Fetch(ctx context.Context, q Query) ([]posting.Posting, error) {
	if err := ctx.Err(); err != nil {
		return nil, sourceErr(s.Name(), err)
	}

	c := colly.NewCollector(
		colly.AllowedDomains(s.allowedHost),
		colly.UserAgent(browserUserAgent),
	)
	c.SetRequestTimeout(20 * time.Second)
	if s.delay > 0 {
		_ = c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: s.delay, RandomDelay: s.delay / 2})
	}

	now := time.Now().UTC()
	out := make([]posting.Posting, 0)
	var scrapeErr error

	c.OnHTML("li", func(e *colly.HTMLElement) {
		if q.MaxJobs > 0 && len(out) >= q.MaxJobs {
			return
		}

		title := strings.TrimSpace(e.ChildText(".base-search-card__title"))
		if title == "" {
			return
		}
		link := strings.TrimSpace(e.ChildAttr("a.base-card__full-link", "href"))
		if link == "" {
			link = strings.TrimSpace(e.ChildAttr("a", "href"))
		}

		externalID := externalIDFromURN(e.ChildAttr("div", "data-entity-urn"))
		if externalID == "" {
			externalID = stableExternalID(link)
		}
		if externalID == "" {
			return
		}

		out = append(out, posting.Posting{
			Source:       s.Name(),
			ExternalID:   externalID,
			Title:        title,
			Company:      pickNonEmpty(e.ChildText(".base-search-card__subtitle"), "Unknown"),
			Location:     pickNonEmpty(e.ChildText(".job-search-card__location"), "Remote"),
			URL:          link,
			DiscoveredAt: now,
		})
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		scrapeErr = fmt.Errorf("status=%d: %w", status, err)
	})

	searchURL := fmt.Sprintf("%s/jobs-guest/jobs/api/seeMoreJobPostings/search?keywords=%s&location=%s&start=0",
		s.baseURL,
		url.QueryEscape(strings.Join(q.Keywords, " ")),
		url.QueryEscape(q.Location),
	)
	if err := c.Visit(searchURL); err != nil {
		return nil, sourceErr(s.Name(), err)
	}
	c.Wait()

	if scrapeErr != nil {
		return nil, sourceErr(s.Name(), scrapeErr)
	}
	return out, nil
}

// externalIDFromURN extracts the numeric id from a value like
// "urn:li:jobPosting:3811449121".
func externalIDFromURN(urn string) string {
	urn = strings.TrimSpace(urn)
	if urn == "" {
		return ""
	}
	parts := strings.Split(urn, ":")
	return strings.TrimSpace(parts[len(parts)-1])
}
