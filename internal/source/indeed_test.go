package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const indeedResultsPage = `<!DOCTYPE html><html><body>
<div id="resultsCol">
  <div class="job_seen_beacon" data-jk="abc123">
    <h2 class="jobTitle"><a href="/viewjob?jk=abc123"><span>Backend Engineer (Go)</span></a></h2>
    <span class="companyName">Initech</span>
    <div class="companyLocation">Austin, TX</div>
    <div class="salary-snippet">$140,000 a year</div>
    <div class="job-snippet">Own the billing pipeline end to end.</div>
  </div>
  <div class="job_seen_beacon" data-jk="def456">
    <h2 class="jobTitle"><a href="/viewjob?jk=def456"><span>Site Reliability Engineer</span></a></h2>
    <span class="companyName">Globex</span>
    <div class="companyLocation">Remote</div>
  </div>
  <div class="job_seen_beacon" data-jk="">
    <h2 class="jobTitle"><a href="/viewjob?jk=none"><span>Card without an id</span></a></h2>
  </div>
</div>
</body></html>`

func TestIndeed_FetchParsesJobCards(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/jobs" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "golang backend" {
			t.Errorf("unexpected query %q", got)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(indeedResultsPage))
	}))
	defer srv.Close()

	s := NewIndeedWithBaseURL(srv.URL)
	got, err := s.Fetch(context.Background(), Query{
		Keywords: []string{"golang", "backend"},
		Location: "Austin",
		MaxJobs:  10,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 postings, got %d", len(got))
	}
	first := got[0]
	if first.Source != "indeed" || first.ExternalID != "abc123" {
		t.Fatalf("unexpected identity %s|%s", first.Source, first.ExternalID)
	}
	if first.Title != "Backend Engineer (Go)" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if first.Company != "Initech" || first.Location != "Austin, TX" {
		t.Fatalf("unexpected company/location: %+v", first)
	}
	if first.Salary == nil || *first.Salary != "$140,000 a year" {
		t.Fatalf("unexpected salary: %v", first.Salary)
	}
	if first.URL != srv.URL+"/viewjob?jk=abc123" {
		t.Fatalf("unexpected url %q", first.URL)
	}
	if got[1].Salary != nil {
		t.Fatalf("expected nil salary for second card, got %v", *got[1].Salary)
	}
}

func TestIndeed_FetchRespectsMaxJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(indeedResultsPage))
	}))
	defer srv.Close()

	s := NewIndeedWithBaseURL(srv.URL)
	got, err := s.Fetch(context.Background(), Query{MaxJobs: 1})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
}

func TestIndeed_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewIndeedWithBaseURL(srv.URL)
	if _, err := s.Fetch(context.Background(), Query{}); err == nil {
		t.Fatal("expected error for 403 response")
	}
}

func TestLinkedIn_ExternalIDFromURN(t *testing.T) {
	if got := externalIDFromURN("urn:li:jobPosting:3811449121"); got != "3811449121" {
		t.Fatalf("got %q", got)
	}
	if got := externalIDFromURN(""); got != "" {
		t.Fatalf("expected empty id, got %q", got)
	}
}
