package applicator

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"ai-job-bot/internal/config"
	"ai-job-bot/internal/domain/posting"

	"github.com/chromedp/chromedp"
)

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// Browser drives a headless Chrome session per application. Each attempt
// gets a fresh browser context so state never leaks between postings.
type Browser struct {
	timeout time.Duration
	logger  *log.Logger
}

func NewBrowser(logger *log.Logger) *Browser {
	return &Browser{timeout: 90 * time.Second, logger: logger}
}

func (b *Browser) Apply(ctx context.Context, p posting.Posting, applicant config.ApplicantConfig) Outcome {
	if p.URL == "" {
		return failed(fmt.Errorf("%w: posting %s has no url", ErrApplication, p.Identity().Key()))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(browserUserAgent),
		)...,
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, b.timeout)
	defer reqCancel()

	var hasCaptcha, hasForm bool
	err := chromedp.Run(reqCtx,
		chromedp.Navigate(p.URL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.EvaluateAsDevTools(`!!document.querySelector('iframe[src*="recaptcha"], .g-recaptcha, .h-captcha, iframe[src*="hcaptcha"]')`, &hasCaptcha),
		chromedp.EvaluateAsDevTools(`!!document.querySelector('form input[type="email"], form input[name*="email" i]')`, &hasForm),
	)
	if err != nil {
		return failed(fmt.Errorf("%w: load %s: %v", ErrApplication, p.URL, err))
	}

	if hasCaptcha {
		return needsManual("captcha challenge on application page")
	}
	if !hasForm {
		return needsManual("no inline application form found")
	}

	actions := []chromedp.Action{
		fillFirst(`form input[name*="name" i]:not([type="hidden"])`, applicant.Name),
		fillFirst(`form input[type="email"], form input[name*="email" i]`, applicant.Email),
		fillFirst(`form input[type="tel"], form input[name*="phone" i]`, applicant.Phone),
		fillFirst(`form input[name*="location" i], form input[name*="city" i]`, applicant.Location),
		fillFirst(`form input[name*="linkedin" i]`, applicant.LinkedInURL),
	}
	if applicant.ResumePath != "" {
		if _, statErr := os.Stat(applicant.ResumePath); statErr == nil {
			actions = append(actions, chromedp.SetUploadFiles(`form input[type="file"]`, []string{applicant.ResumePath}, chromedp.ByQuery))
		} else if b.logger != nil {
			b.logger.Printf("applicator=browser status=resume_missing path=%s", applicant.ResumePath)
		}
	}
	actions = append(actions,
		chromedp.Sleep(500*time.Millisecond),
		chromedp.Click(`form button[type="submit"], form input[type="submit"]`, chromedp.ByQuery),
		chromedp.Sleep(2*time.Second),
	)

	if err := chromedp.Run(reqCtx, actions...); err != nil {
		return failed(fmt.Errorf("%w: submit %s: %v", ErrApplication, p.URL, err))
	}

	if b.logger != nil {
		b.logger.Printf("applicator=browser status=submitted posting=%s", p.Identity().Key())
	}
	return Outcome{Disposition: Submitted, Message: "application form submitted"}
}

// fillFirst fills the first matching field and is a no-op when the value is
// empty or the selector matches nothing.
func fillFirst(selector, value string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if value == "" {
			return nil
		}
		var present bool
		if err := chromedp.EvaluateAsDevTools(fmt.Sprintf(`!!document.querySelector(%q)`, selector), &present).Do(ctx); err != nil {
			return err
		}
		if !present {
			return nil
		}
		return chromedp.SendKeys(selector, value, chromedp.ByQuery).Do(ctx)
	})
}
