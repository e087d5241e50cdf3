package acceptance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/jpalmerr/superlists/internal/browser"
	"github.com/jpalmerr/superlists/wait"
)

var listPathPattern = regexp.MustCompile(`^/lists/[^/]+/$`)

// DefaultItems is the to-do list a new visitor types in.
var DefaultItems = []string{
	"Buy peacock feathers",
	"Use peacock feathers to make a fly",
}

// DefaultIsolation is the pair of first items used for the isolation check.
var DefaultIsolation = IsolationScenario{
	First:  "Buy peacock feathers",
	Second: "Buy milk",
}

// NewVisitorScenario starts a list and adds Items to it one by one.
//
// After each submission every row so far must be visible as
// "{position}: {text}", and the visitor must stay on the list's own URL.
type NewVisitorScenario struct {
	Items []string
}

// Run plays the scenario with v.
func (s NewVisitorScenario) Run(ctx context.Context, v *Visitor) error {
	if len(s.Items) == 0 {
		return errors.New("scenario needs at least one item")
	}

	if err := v.CheckHomePage(ctx); err != nil {
		return err
	}

	var listURL string
	for i, text := range s.Items {
		if err := v.Submit(ctx, text); err != nil {
			return err
		}

		for j := 0; j <= i; j++ {
			if err := v.WaitForRowInListTable(ctx, rowLabel(j+1, s.Items[j])); err != nil {
				return err
			}
		}

		current := v.browser.CurrentURL()
		if i == 0 {
			if err := checkListURL(current); err != nil {
				return err
			}
			listURL = current
			continue
		}
		if current != listURL {
			return fmt.Errorf("%w: moved from %s to %s after adding %q", ErrAssertion, listURL, current, text)
		}
	}

	rows, err := v.RowTexts()
	if err != nil {
		return err
	}
	if len(rows) != len(s.Items) {
		return fmt.Errorf("%w: list table has %d rows, want %d: %q", ErrAssertion, len(rows), len(s.Items), rows)
	}
	for i, row := range rows {
		if want := rowLabel(i+1, s.Items[i]); row != want {
			return fmt.Errorf("%w: row %d = %q, want %q", ErrAssertion, i+1, row, want)
		}
	}
	return nil
}

// IsolationScenario has two fresh visitors each start a list.
//
// The lists must get distinct URLs and neither visitor may see the other's item.
type IsolationScenario struct {
	First  string
	Second string
}

// Run plays the scenario. newVisitor is called once per visitor and must
// return a visitor with its own browser session plus a release func.
func (s IsolationScenario) Run(ctx context.Context, newVisitor func() (*Visitor, func(), error)) error {
	if s.First == "" || s.Second == "" {
		return errors.New("scenario needs two item texts")
	}

	firstURL, err := s.startList(ctx, newVisitor, s.First, "")
	if err != nil {
		return fmt.Errorf("first visitor: %w", err)
	}

	secondURL, err := s.startList(ctx, newVisitor, s.Second, s.First)
	if err != nil {
		return fmt.Errorf("second visitor: %w", err)
	}

	if firstURL == secondURL {
		return fmt.Errorf("%w: both visitors ended up on %s", ErrAssertion, firstURL)
	}
	return nil
}

// startList opens the home page in a new session, submits text and returns
// the list URL. Neither page may show forbidden when it is not empty.
func (s IsolationScenario) startList(ctx context.Context, newVisitor func() (*Visitor, func(), error), text, forbidden string) (string, error) {
	v, release, err := newVisitor()
	if err != nil {
		return "", err
	}
	defer release()

	if err := v.OpenHome(ctx); err != nil {
		return "", err
	}
	if err := checkAbsent(v, forbidden); err != nil {
		return "", err
	}

	if err := v.Submit(ctx, text); err != nil {
		return "", err
	}
	if err := v.WaitForRowInListTable(ctx, rowLabel(1, text)); err != nil {
		return "", err
	}

	current := v.browser.CurrentURL()
	if err := checkListURL(current); err != nil {
		return "", err
	}
	if err := checkAbsent(v, forbidden); err != nil {
		return "", err
	}
	return current, nil
}

// Runner plays every scenario against one deployment, each visitor in a
// fresh browser session.
type Runner struct {
	BaseURL        string
	Waiter         *wait.Waiter
	BrowserOptions []browser.Option
	Logger         *slog.Logger
}

// NewVisitor opens a browser session and returns a visitor plus the func
// that quits the browser.
func (r *Runner) NewVisitor() (*Visitor, func(), error) {
	b, err := browser.New(r.BrowserOptions...)
	if err != nil {
		return nil, nil, err
	}
	return NewVisitor(r.BaseURL, b, r.Waiter), b.Quit, nil
}

// Run plays [NewVisitorScenario] with [DefaultItems] and then
// [DefaultIsolation]. It stops at the first failing scenario.
func (r *Runner) Run(ctx context.Context) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}

	err := browser.Session(func(b *browser.Browser) error {
		return NewVisitorScenario{Items: DefaultItems}.Run(ctx, NewVisitor(r.BaseURL, b, r.Waiter))
	}, r.BrowserOptions...)
	if err != nil {
		logger.Error("scenario failed", "scenario", "new visitor", "url", r.BaseURL, "error", err)
		return fmt.Errorf("new visitor scenario: %w", err)
	}
	logger.Info("scenario passed", "scenario", "new visitor", "url", r.BaseURL)

	if err := DefaultIsolation.Run(ctx, r.NewVisitor); err != nil {
		logger.Error("scenario failed", "scenario", "isolation", "url", r.BaseURL, "error", err)
		return fmt.Errorf("isolation scenario: %w", err)
	}
	logger.Info("scenario passed", "scenario", "isolation", "url", r.BaseURL)
	return nil
}

func rowLabel(position int, text string) string {
	return fmt.Sprintf("%d: %s", position, text)
}

func checkListURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: invalid current url %q", ErrAssertion, raw)
	}
	if !listPathPattern.MatchString(u.Path) {
		return fmt.Errorf("%w: current url %s is not a list url", ErrAssertion, raw)
	}
	return nil
}

func checkAbsent(v *Visitor, forbidden string) error {
	if forbidden == "" {
		return nil
	}
	text, err := v.PageText()
	if err != nil {
		return err
	}
	if strings.Contains(text, forbidden) {
		return fmt.Errorf("%w: page %s shows %q from another list", ErrAssertion, v.browser.CurrentURL(), forbidden)
	}
	return nil
}
