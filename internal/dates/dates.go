// Package dates turns the partial, ambiguous date strings found on listing
// pages into canonical YYYY-MM-DD values.
package dates

import (
	"fmt"
	"regexp"
	"time"
)

// Patterns recognized, in priority order: an explicit Y.M.D (optionally
// behind a "registered on" marker), a bare HH:MM meaning "posted today",
// and a bracketed [M/D] inside a title with the year left implicit.
var (
	explicitRe = regexp.MustCompile(`(?:등록일\s*)?(\d{4})[.\-/]\s*(\d{1,2})[.\-/]\s*(\d{1,2})`)
	clockRe    = regexp.MustCompile(`(?:^|\s)(\d{1,2}):(\d{2})(?:\s|$)`)
	bracketRe  = regexp.MustCompile(`\[(\d{1,2})\s*/\s*(\d{1,2})\]`)
)

// Extractor resolves implicit years and "today" against an injected clock.
// ReferenceYear anchors bracket dates; zero means "the clock's year".
type Extractor struct {
	Now           func() time.Time
	ReferenceYear int
}

// New builds an Extractor on the system clock.
func New() *Extractor {
	return &Extractor{Now: time.Now}
}

// Extract returns the canonical date found in text, or "" when no pattern
// matches. It never fails.
func (e *Extractor) Extract(text string) string {
	if text == "" {
		return ""
	}

	if m := explicitRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], pad(m[2]), pad(m[3]))
	}

	now := e.now()

	// Same-day posts often show only a clock time on the listing page.
	if clockRe.MatchString(text) {
		return now.Format("2006-01-02")
	}

	if m := bracketRe.FindStringSubmatch(text); m != nil {
		month := atoi(m[1])
		day := atoi(m[2])
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			return fmt.Sprintf("%04d-%02d-%02d", e.bracketYear(month, now), month, day)
		}
	}

	return ""
}

// ExtractExplicit applies only the explicit Y.M.D recognizer. Adapters use
// this on node text where a stray clock time must not be read as "today".
func (e *Extractor) ExtractExplicit(text string) string {
	if m := explicitRe.FindStringSubmatch(text); m != nil {
		return fmt.Sprintf("%s-%s-%s", m[1], pad(m[2]), pad(m[3]))
	}
	return ""
}

// bracketYear infers the year for a [M/D] stamp. A bracket month more than
// one month ahead of the current month belongs to the previous year: a
// December post surfacing in an early-January run.
func (e *Extractor) bracketYear(month int, now time.Time) int {
	ref := e.ReferenceYear
	if ref == 0 {
		ref = now.Year()
	}
	if month > int(now.Month())+1 {
		return ref - 1
	}
	return ref
}

func (e *Extractor) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func pad(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

var stampRe = regexp.MustCompile(`등록일\s*\d{4}[.\-/]\s*\d{1,2}[.\-/]\s*\d{1,2}`)

// StripStamp removes "등록일 Y.M.D" stamps that sites embed in title cells.
func StripStamp(s string) string {
	return stampRe.ReplaceAllString(s, "")
}
