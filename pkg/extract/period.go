package extract

import (
	"regexp"
	"sort"
	"time"
)

// dateToken matches any substring our date formats can parse, with an
// explicit year so a period is never built on guessed years.
const dateToken = `(\d{4}[/\-.]\d{1,2}[/\-.]\d{1,2}` +
	`|\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}` +
	`|[A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4}` +
	`|\d{1,2}\s+[A-Za-z]{3,9}\.?,?\s+\d{4})`

// periodPatterns are keyword-anchored phrasings seen across issuer layouts,
// tried in order; the first whose two dates parse and satisfy start <= end
// wins.
var periodPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)statement\s+period:?\s*` + dateToken + `\s*(?:to|through|-|–)\s*` + dateToken),
	regexp.MustCompile(`(?i)billing\s+(?:cycle|period):?\s*` + dateToken + `\s*(?:to|through|-|–)\s*` + dateToken),
	regexp.MustCompile(`(?i)opening\s+date:?\s*` + dateToken + `.{0,40}?closing\s+date:?\s*` + dateToken),
	regexp.MustCompile(`(?i)\bfrom\s+` + dateToken + `\s+(?:to|through)\s+` + dateToken),
	regexp.MustCompile(`(?i)activity\s+between\s+` + dateToken + `\s+and\s+` + dateToken),
}

var anyDateRE = regexp.MustCompile(dateToken)

// DetectPeriod extracts the billing range from page text. The boolean is
// false when no period could be determined, which is expected on non-summary
// pages and is not an error.
func DetectPeriod(text string) (Period, bool) {
	ref := time.Now()
	for _, re := range periodPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		start, err1 := ResolveDate(m[1], ref, nil)
		end, err2 := ResolveDate(m[2], ref, nil)
		if err1 != nil || err2 != nil {
			continue
		}
		if start.After(end) {
			continue
		}
		return Period{Start: start, End: end}, true
	}
	return fallbackPeriod(text, ref)
}

// fallbackPeriod scans the whole page for date-like substrings and takes the
// earliest and latest as a best-guess range. It only commits when at least
// two distinct calendar dates were found.
func fallbackPeriod(text string, ref time.Time) (Period, bool) {
	seen := map[time.Time]struct{}{}
	var dates []time.Time
	for _, m := range anyDateRE.FindAllString(text, -1) {
		t, err := ResolveDate(m, ref, nil)
		if err != nil {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		dates = append(dates, t)
	}
	if len(dates) < 2 {
		return Period{}, false
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	first, last := dates[0], dates[len(dates)-1]
	if !first.Before(last) {
		return Period{}, false
	}
	return Period{Start: first, End: last}, true
}
