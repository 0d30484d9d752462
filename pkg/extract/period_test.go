package extract

import (
	"testing"
	"time"
)

func TestDetectPeriodKeywordPatterns(t *testing.T) {
	cases := []string{
		"ACME BANK\nStatement Period: 12/01/2024 to 01/15/2025\nAccount ending 4421",
		"Billing Cycle 12/01/2024 - 01/15/2025",
		"Opening Date: December 1, 2024   Closing Date: January 15, 2025",
		"Summary of activity from 12/01/2024 through 01/15/2025",
		"All account activity between 12/01/2024 and 01/15/2025",
	}
	wantStart := date(2024, time.December, 1)
	wantEnd := date(2025, time.January, 15)
	for _, text := range cases {
		p, ok := DetectPeriod(text)
		if !ok {
			t.Fatalf("no period detected in %q", text)
		}
		if !p.Start.Equal(wantStart) || !p.End.Equal(wantEnd) {
			t.Fatalf("period %s..%s for %q", p.Start, p.End, text)
		}
	}
}

func TestDetectPeriodRejectsInvertedRange(t *testing.T) {
	// start > end fails the keyword pattern; the fallback still sorts the
	// two dates into a usable range.
	p, ok := DetectPeriod("Statement Period: 01/15/2025 to 12/01/2024")
	if !ok {
		t.Fatal("fallback should salvage two distinct dates")
	}
	if !p.Start.Equal(date(2024, time.December, 1)) || !p.End.Equal(date(2025, time.January, 15)) {
		t.Fatalf("fallback period %s..%s", p.Start, p.End)
	}
}

func TestDetectPeriodFallbackScan(t *testing.T) {
	text := "Payment received 01/05/2024 thank you\nPOS purchase 03/10/2024 grocer"
	p, ok := DetectPeriod(text)
	if !ok {
		t.Fatal("expected fallback period")
	}
	if !p.Start.Equal(date(2024, time.January, 5)) || !p.End.Equal(date(2024, time.March, 10)) {
		t.Fatalf("fallback period %s..%s", p.Start, p.End)
	}
}

func TestDetectPeriodUndetermined(t *testing.T) {
	if _, ok := DetectPeriod("no dates anywhere in this text"); ok {
		t.Fatal("expected undetermined period")
	}
	// A single date is not a range.
	if _, ok := DetectPeriod("one date 01/05/2024 only, mentioned 01/05/2024 twice"); ok {
		t.Fatal("single distinct date must not form a period")
	}
}
