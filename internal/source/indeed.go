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

// Indeed scrapes the public search results page. Card markup shifts every
// few months, so selectors are kept together in the OnHTML block.
type Indeed struct {
	baseURL     string
	allowedHost string
	delay       time.Duration
}

func NewIndeed(delay time.Duration) *Indeed {
	s := &Indeed{baseURL: "https://www.indeed.com", delay: delay}
	s.allowedHost = hostFromBaseURL(s.baseURL)
	return s
}

func NewIndeedWithBaseURL(base string) *Indeed {
	s := &Indeed{baseURL: strings.TrimRight(strings.TrimSpace(base), "/")}
	if s.baseURL == "" {
		s.baseURL = "https://www.indeed.com"
	}
	s.allowedHost = hostFromBaseURL(s.baseURL)
	return s
}

func (s *Indeed) Name() string { return "indeed" }

func (s *Indeed) Fetch(ctx context.Context, q Query) ([]posting.Posting, error) {
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

	c.OnHTML(`[data-jk]`, func(e *colly.HTMLElement) {
		if q.MaxJobs > 0 && len(out) >= q.MaxJobs {
			return
		}
		externalID := strings.TrimSpace(e.Attr("data-jk"))
		title := strings.TrimSpace(e.ChildText("h2 a"))
		if title == "" {
			title = strings.TrimSpace(e.ChildText("h2"))
		}
		if externalID == "" || title == "" {
			return
		}

		link := strings.TrimSpace(e.ChildAttr("h2 a", "href"))
		if link != "" && !strings.HasPrefix(link, "http") {
			link = s.baseURL + link
		}

		salary := strings.TrimSpace(e.ChildText(".salary-snippet"))
		p := posting.Posting{
			Source:       s.Name(),
			ExternalID:   externalID,
			Title:        title,
			Company:      pickNonEmpty(e.ChildText(".companyName"), e.ChildText(`[data-testid="company-name"]`), "Unknown"),
			Location:     pickNonEmpty(e.ChildText(".companyLocation"), e.ChildText(`[data-testid="text-location"]`), "Remote"),
			Description:  strings.TrimSpace(e.ChildText(".job-snippet")),
			URL:          link,
			DiscoveredAt: now,
		}
		if salary != "" {
			p.Salary = &salary
		}
		out = append(out, p)
	})

	c.OnError(func(r *colly.Response, err error) {
		status := 0
		if r != nil {
			status = r.StatusCode
		}
		scrapeErr = fmt.Errorf("status=%d: %w", status, err)
	})

	searchURL := fmt.Sprintf("%s/jobs?q=%s&l=%s",
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
