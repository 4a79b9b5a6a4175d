package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ai-job-bot/internal/domain/posting"
)

// RemoteOK reads the public JSON feed at /api. The first element of the
// feed is a legal notice, not a listing; entries without an id are skipped.
type RemoteOK struct {
	client  *http.Client
	apiBase string
}

func NewRemoteOK() *RemoteOK {
	return &RemoteOK{
		client:  &http.Client{Timeout: 15 * time.Second},
		apiBase: "https://remoteok.com",
	}
}

func NewRemoteOKWithBaseURL(base string) *RemoteOK {
	s := NewRemoteOK()
	base = strings.TrimSpace(base)
	if base != "" {
		s.apiBase = strings.TrimRight(base, "/")
	}
	return s
}

func (s *RemoteOK) Name() string { return "remoteok" }

type remoteokListing struct {
	ID          json.Number `json:"id"`
	Position    string      `json:"position"`
	Company     string      `json:"company"`
	Location    string      `json:"location"`
	Tags        []string    `json:"tags"`
	Description string      `json:"description"`
	URL         string      `json:"url"`
	SalaryMin   int         `json:"salary_min"`
	SalaryMax   int         `json:"salary_max"`
	Date        string      `json:"date"`
}

func (s *RemoteOK) Fetch(ctx context.Context, q Query) ([]posting.Posting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.apiBase+"/api", nil)
	if err != nil {
		return nil, sourceErr(s.Name(), err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", browserUserAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, sourceErr(s.Name(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, sourceErr(s.Name(), fmt.Errorf("unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, sourceErr(s.Name(), err)
	}

	var listings []remoteokListing
	if err := json.Unmarshal(body, &listings); err != nil {
		return nil, sourceErr(s.Name(), err)
	}

	now := time.Now().UTC()
	out := make([]posting.Posting, 0, len(listings))
	for _, l := range listings {
		if l.ID.String() == "" || strings.TrimSpace(l.Position) == "" {
			continue
		}
		if !matchesKeywords(l.Position, q.Keywords) {
			continue
		}

		discovered := now
		if l.Date != "" {
			if t, err := time.Parse(time.RFC3339, l.Date); err == nil {
				discovered = t.UTC()
			}
		}

		p := posting.Posting{
			Source:       s.Name(),
			ExternalID:   l.ID.String(),
			Title:        strings.TrimSpace(l.Position),
			Company:      pickNonEmpty(l.Company, "Unknown"),
			Location:     pickNonEmpty(l.Location, "Remote"),
			Tags:         l.Tags,
			Description:  l.Description,
			URL:          strings.TrimSpace(l.URL),
			DiscoveredAt: discovered,
		}
		if sal := formatSalaryRange(l.SalaryMin, l.SalaryMax); sal != "" {
			p.Salary = &sal
		}
		out = append(out, p)

		if q.MaxJobs > 0 && len(out) >= q.MaxJobs {
			break
		}
	}

	return out, nil
}

func formatSalaryRange(min, max int) string {
	if min <= 0 && max <= 0 {
		return ""
	}
	if min > 0 && max > 0 {
		return "$" + strconv.Itoa(min) + " - $" + strconv.Itoa(max)
	}
	if min > 0 {
		return "$" + strconv.Itoa(min) + "+"
	}
	return "up to $" + strconv.Itoa(max)
}

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
