package scorer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/domain/posting"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const claudeSystemPrompt = `You rate job postings for a specific applicant. ` +
	`Reply with a single JSON object: {"score": <integer 1-10>, "reason": "<one sentence>"}. ` +
	`10 means an excellent match for the applicant's skills and location, 1 means irrelevant. ` +
	`No prose outside the JSON.`

// Claude scores postings through the Anthropic Messages API.
type Claude struct {
	client  anthropic.Client
	model   anthropic.Model
	timeout time.Duration
	logger  *log.Logger
}

func NewClaude(cfg config.ScorerConfig, logger *log.Logger) *Claude {
	model := anthropic.Model(cfg.Model)
	if model == "" {
		model = anthropic.ModelClaude3_5Haiku20241022
	}
	return &Claude{
		client:  anthropic.NewClient(option.WithAPIKey(cfg.AnthropicAPIKey)),
		model:   model,
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (c *Claude) Score(ctx context.Context, p posting.Posting, profile Profile) (int, string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 256,
		System: []anthropic.TextBlockParam{
			{Text: claudeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildScoringPrompt(p, profile))),
		},
	})
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrScoring, err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}

	score, reason, err := parseScoreResponse(text)
	if err != nil {
		if c.logger != nil {
			c.logger.Printf("scorer=claude status=unparseable posting=%s err=%v", p.Identity().Key(), err)
		}
		return 0, "", err
	}
	return score, reason, nil
}

func buildScoringPrompt(p posting.Posting, profile Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Applicant: %s\nPreferred location: %s\nSkills: %s\n\n",
		profile.Name, profile.Location, strings.Join(profile.Skills, ", "))
	fmt.Fprintf(&b, "Job title: %s\nCompany: %s\nLocation: %s\n", p.Title, p.Company, p.Location)
	if p.Salary != nil {
		fmt.Fprintf(&b, "Salary: %s\n", *p.Salary)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "Tags: %s\n", strings.Join(p.Tags, ", "))
	}
	if desc := strings.TrimSpace(p.Description); desc != "" {
		if len(desc) > 2000 {
			desc = desc[:2000]
		}
		fmt.Fprintf(&b, "Description:\n%s\n", desc)
	}
	return b.String()
}

// parseScoreResponse reads the model's JSON reply. The object may arrive
// wrapped in markdown fences or surrounded by stray text, so parsing starts
// at the first brace.
func parseScoreResponse(text string) (int, string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return 0, "", fmt.Errorf("%w: no JSON object in response", ErrScoring)
	}

	var parsed struct {
		Score  int    `json:"score"`
		Reason string `json:"reason"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &parsed); err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrScoring, err)
	}
	if parsed.Score == 0 {
		return 0, "", fmt.Errorf("%w: response missing score", ErrScoring)
	}
	return clampScore(parsed.Score), strings.TrimSpace(parsed.Reason), nil
}
