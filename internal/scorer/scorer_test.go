package scorer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ai-job-bot/internal/domain/posting"
)

func TestFallback_TitleMatchOutweighsDescription(t *testing.T) {
	f := NewFallback()
	profile := Profile{Location: "Remote", Skills: []string{"golang", "kubernetes"}}

	titleHit, _, err := f.Score(context.Background(), posting.Posting{
		Title:    "Senior Golang Engineer",
		Location: "Remote",
	}, profile)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	bodyHit, _, err := f.Score(context.Background(), posting.Posting{
		Title:       "Software Engineer",
		Location:    "Remote",
		Description: "You will write golang services.",
	}, profile)
	if err != nil {
		t.Fatalf("score: %v", err)
	}

	if titleHit <= bodyHit {
		t.Fatalf("title match should score higher: title=%d body=%d", titleHit, bodyHit)
	}
}

func TestFallback_NoMatchStaysLow(t *testing.T) {
	f := NewFallback()
	score, reason, err := f.Score(context.Background(), posting.Posting{
		Title: "Regional Sales Director",
	}, Profile{Skills: []string{"golang"}})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score > 3 {
		t.Fatalf("irrelevant posting scored %d", score)
	}
	if !strings.Contains(reason, "no skill keywords") {
		t.Fatalf("unexpected reason %q", reason)
	}
}

func TestFallback_ScoreStaysInRange(t *testing.T) {
	skills := []string{"go", "golang", "backend", "kubernetes", "docker", "postgres", "redis", "grpc"}
	f := NewFallback()
	score, _, err := f.Score(context.Background(), posting.Posting{
		Title:    "go golang backend kubernetes docker postgres redis grpc",
		Location: "Remote",
	}, Profile{Location: "Remote", Skills: skills})
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if score < 1 || score > 10 {
		t.Fatalf("score out of range: %d", score)
	}
}

func TestParseScoreResponse(t *testing.T) {
	score, reason, err := parseScoreResponse(`{"score": 8, "reason": "strong backend match"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if score != 8 || reason != "strong backend match" {
		t.Fatalf("got score=%d reason=%q", score, reason)
	}
}

func TestParseScoreResponse_FencedAndClamped(t *testing.T) {
	score, _, err := parseScoreResponse("```json\n{\"score\": 14, \"reason\": \"over-eager model\"}\n```")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if score != 10 {
		t.Fatalf("expected clamp to 10, got %d", score)
	}
}

func TestParseScoreResponse_Invalid(t *testing.T) {
	for _, text := range []string{"", "sure, this looks like a 7 to me", `{"reason": "no score"}`} {
		if _, _, err := parseScoreResponse(text); !errors.Is(err, ErrScoring) {
			t.Fatalf("text %q: expected ErrScoring, got %v", text, err)
		}
	}
}
