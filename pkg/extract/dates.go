package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// parsedDate is a calendar candidate before year resolution.
type parsedDate struct {
	year    int
	month   time.Month
	day     int
	hasYear bool
}

// dateFormat pairs a token pattern with its field extractor. Formats are
// tried in priority order; the first whose extraction survives calendar
// validation wins.
type dateFormat struct {
	re    *regexp.Regexp
	build func(m []string) (parsedDate, bool)
}

var monthsByName = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func monthByName(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimRight(s, "."))
	if len(s) > 3 {
		s = s[:3]
	}
	m, ok := monthsByName[s]
	return m, ok
}

var dateFormats = []dateFormat{
	{ // YYYY-MM-DD (any of -, /, .)
		re: regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})[/\-.](\d{1,2})$`),
		build: func(m []string) (parsedDate, bool) {
			return numericDate(m[2], m[3], m[1], true)
		},
	},
	{ // MM-DD-YYYY
		re: regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{4})$`),
		build: func(m []string) (parsedDate, bool) {
			return numericDate(m[1], m[2], m[3], true)
		},
	},
	{ // MM-DD-YY, two-digit year pinned to 2000+
		re: regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})[/\-.](\d{2})$`),
		build: func(m []string) (parsedDate, bool) {
			yy, _ := strconv.Atoi(m[3])
			return numericDate(m[1], m[2], strconv.Itoa(2000+yy), true)
		},
	},
	{ // Month DD, YYYY
		re: regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2}),?\s+(\d{4})$`),
		build: func(m []string) (parsedDate, bool) {
			mon, ok := monthByName(m[1])
			if !ok {
				return parsedDate{}, false
			}
			day, _ := strconv.Atoi(m[2])
			year, _ := strconv.Atoi(m[3])
			return parsedDate{year: year, month: mon, day: day, hasYear: true}, true
		},
	},
	{ // DD Month YYYY
		re: regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]{3,9})\.?,?\s+(\d{4})$`),
		build: func(m []string) (parsedDate, bool) {
			mon, ok := monthByName(m[2])
			if !ok {
				return parsedDate{}, false
			}
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			return parsedDate{year: year, month: mon, day: day, hasYear: true}, true
		},
	},
	{ // bare MM/DD, year resolved later
		re: regexp.MustCompile(`^(\d{1,2})[/\-.](\d{1,2})$`),
		build: func(m []string) (parsedDate, bool) {
			return numericDate(m[1], m[2], "", false)
		},
	},
	{ // Mon DD without year (e.g. "Mar 4")
		re: regexp.MustCompile(`^([A-Za-z]{3,9})\.?\s+(\d{1,2})$`),
		build: func(m []string) (parsedDate, bool) {
			mon, ok := monthByName(m[1])
			if !ok {
				return parsedDate{}, false
			}
			day, _ := strconv.Atoi(m[2])
			return parsedDate{month: mon, day: day}, true
		},
	},
}

func numericDate(monthS, dayS, yearS string, hasYear bool) (parsedDate, bool) {
	month, _ := strconv.Atoi(monthS)
	day, _ := strconv.Atoi(dayS)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return parsedDate{}, false
	}
	pd := parsedDate{month: time.Month(month), day: day, hasYear: hasYear}
	if hasYear {
		pd.year, _ = strconv.Atoi(yearS)
	}
	return pd, true
}

// validDay round-trips year/month/day through time.Date and rejects
// normalized overflow (e.g. Feb 30 silently becoming Mar 2).
func validDay(year int, month time.Month, day int) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// ResolveDate parses a raw date token and resolves a missing year using the
// statement period when known, else the reference date. Tokens that parse to
// a future date without an explicit year are pulled back one year: an omitted
// year defaulting to "this year" usually means the row is from last year.
func ResolveDate(raw string, ref time.Time, period *Period) (time.Time, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return time.Time{}, fmt.Errorf("empty date token")
	}
	for _, f := range dateFormats {
		m := f.re.FindStringSubmatch(token)
		if m == nil {
			continue
		}
		pd, ok := f.build(m)
		if !ok {
			continue
		}
		if pd.hasYear {
			if t, ok := validDay(pd.year, pd.month, pd.day); ok {
				return t, nil
			}
			continue
		}
		year := resolveYear(pd.month, ref, period)
		t, ok := validDay(year, pd.month, pd.day)
		if !ok {
			continue
		}
		if period == nil && t.After(ref) {
			if back, ok := validDay(year-1, pd.month, pd.day); ok {
				return back, nil
			}
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date token %q", raw)
}

// resolveYear picks the year for a year-less date. Within a single-year
// period that year wins. Across a boundary, months at or before the period's
// end month belong to the end year and the rest to the start year, so a
// December-start/January-end statement lands December rows in the start year.
func resolveYear(month time.Month, ref time.Time, period *Period) int {
	if period == nil {
		return ref.Year()
	}
	if !period.SpansYears() {
		return period.End.Year()
	}
	if month <= period.End.Month() {
		return period.End.Year()
	}
	return period.Start.Year()
}

var filenameDateREs = []*regexp.Regexp{
	regexp.MustCompile(`(\d{4})[-_](\d{1,2})[-_](\d{1,2})`),
	regexp.MustCompile(`(\d{4})[-_](\d{1,2})`),
	regexp.MustCompile(`(?i)(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*[-_ ]?(\d{4})`),
}

// FilenameDate extracts a document date hint from an upload name such as
// "statement_2024-12.pdf" or "chase-march-2025.pdf".
func FilenameDate(name string) (time.Time, bool) {
	for i, re := range filenameDateREs {
		m := re.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		switch i {
		case 0:
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			day, _ := strconv.Atoi(m[3])
			if month >= 1 && month <= 12 {
				if t, ok := validDay(year, time.Month(month), day); ok {
					return t, true
				}
			}
		case 1:
			year, _ := strconv.Atoi(m[1])
			month, _ := strconv.Atoi(m[2])
			if month >= 1 && month <= 12 && year >= 1990 && year <= 2100 {
				return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
			}
		case 2:
			mon, ok := monthByName(m[1])
			if !ok {
				continue
			}
			year, _ := strconv.Atoi(m[2])
			return time.Date(year, mon, 1, 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
