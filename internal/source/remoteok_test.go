package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const remoteokFeed = `[
  {"legal": "API terms apply"},
  {"id": 101, "position": "Senior Go Developer", "company": "Acme", "location": "Remote",
   "tags": ["golang", "backend"], "description": "Build services.",
   "url": "https://remoteok.com/remote-jobs/101", "salary_min": 90000, "salary_max": 120000,
   "date": "2026-08-20T10:00:00+00:00"},
  {"id": 102, "position": "Marketing Manager", "company": "Acme", "location": "Remote",
   "url": "https://remoteok.com/remote-jobs/102"},
  {"id": 103, "position": "Go Platform Engineer", "company": "Beta", "location": "Remote",
   "url": "https://remoteok.com/remote-jobs/103"}
]`

func TestRemoteOK_FetchFiltersByKeyword(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(remoteokFeed))
	}))
	defer srv.Close()

	s := NewRemoteOKWithBaseURL(srv.URL)
	got, err := s.Fetch(context.Background(), Query{Keywords: []string{"go"}, MaxJobs: 10})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 postings after keyword filter, got %d", len(got))
	}
	first := got[0]
	if first.Source != "remoteok" || first.ExternalID != "101" {
		t.Fatalf("unexpected identity %s|%s", first.Source, first.ExternalID)
	}
	if first.Title != "Senior Go Developer" || first.Company != "Acme" {
		t.Fatalf("unexpected fields: %+v", first)
	}
	if first.Salary == nil || *first.Salary != "$90000 - $120000" {
		t.Fatalf("unexpected salary: %v", first.Salary)
	}
	if len(first.Tags) != 2 {
		t.Fatalf("expected 2 tags, got %v", first.Tags)
	}
}

func TestRemoteOK_FetchRespectsMaxJobs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(remoteokFeed))
	}))
	defer srv.Close()

	s := NewRemoteOKWithBaseURL(srv.URL)
	got, err := s.Fetch(context.Background(), Query{Keywords: []string{"go"}, MaxJobs: 1})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(got))
	}
}

func TestRemoteOK_FetchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewRemoteOKWithBaseURL(srv.URL)
	if _, err := s.Fetch(context.Background(), Query{}); err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestFormatSalaryRange(t *testing.T) {
	cases := []struct {
		min, max int
		want     string
	}{
		{0, 0, ""},
		{90000, 120000, "$90000 - $120000"},
		{90000, 0, "$90000+"},
		{0, 120000, "up to $120000"},
	}
	for _, c := range cases {
		if got := formatSalaryRange(c.min, c.max); got != c.want {
			t.Fatalf("formatSalaryRange(%d,%d)=%q want %q", c.min, c.max, got, c.want)
		}
	}
}
