package signal

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	datePattern = `(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})` +
		`|(\d{1,2})/(\d{1,2})/(\d{4})` +
		`|(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})`

	// how far back from a date a deadline word still claims it
	deadlineReach = 24
)

var (
	reDate     = regexp.MustCompile(`\b(?:` + datePattern + `)\b`)
	rePosted   = regexp.MustCompile(`\b(?:posted|published|listed)\b(?:\s+[^\s\d]+){0,6}?[\s:,-]{1,4}(` + datePattern + `)\b`)
	reDeadline = regexp.MustCompile(`\b(?:due|deadline|closes?|closing|expires?|until|before|submit)\b`)
	reByDate   = regexp.MustCompile(`\bby[\s:,-]{1,3}$`)

	months = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "sept": time.September, "oct": time.October,
		"nov": time.November, "dec": time.December,
	}
)

// InferPostedAt finds when an item was posted from its folded text
// precedence: a date shortly after a posted keyword, then the first bare date not tied to a deadline,
// then generatedAt; dates after generatedAt are ignored
// up to six digit-free words may sit between the keyword and its date ("posted by acme on ...")
// "by" marks a deadline only when the date follows it directly
func InferPostedAt(folded string, generatedAt time.Time) time.Time {
	generatedAt = generatedAt.UTC()

	for _, m := range rePosted.FindAllStringSubmatchIndex(folded, -1) {
		// m[2] starts the date; a deadline word in between means the date is not the posting date
		if gap := folded[m[0]:m[2]]; reDeadline.MatchString(gap) || reByDate.MatchString(gap) {
			continue
		}
		if t, ok := dateFrom(folded, m[4:]); ok && !t.After(generatedAt) {
			return t
		}
	}

	for _, m := range reDate.FindAllStringSubmatchIndex(folded, -1) {
		if tiedToDeadline(folded, m[0]) {
			continue
		}
		if t, ok := dateFrom(folded, m[2:]); ok && !t.After(generatedAt) {
			return t
		}
	}
	return generatedAt
}

func tiedToDeadline(s string, start int) bool {
	from := start - deadlineReach
	if from < 0 {
		from = 0
	}
	window := s[from:start]
	return reDeadline.MatchString(window) || reByDate.MatchString(window)
}

// dateFrom reads the three alternatives of datePattern from submatch indexes
func dateFrom(s string, idx []int) (time.Time, bool) {
	group := func(i int) string {
		if 2*i+1 >= len(idx) || idx[2*i] < 0 {
			return ""
		}
		return s[idx[2*i]:idx[2*i+1]]
	}
	atoi := func(x string) int {
		n, _ := strconv.Atoi(x)
		return n
	}

	var y, d int
	var mon time.Month
	switch {
	case group(0) != "":
		y, mon, d = atoi(group(0)), time.Month(atoi(group(1))), atoi(group(2))
	case group(3) != "":
		mon, d, y = time.Month(atoi(group(3))), atoi(group(4)), atoi(group(5))
	case group(6) != "":
		mon = months[strings.TrimSuffix(group(6), ".")]
		d, y = atoi(group(7)), atoi(group(8))
	default:
		return time.Time{}, false
	}
	if y < 1990 || y > 2200 || mon < time.January || mon > time.December || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, mon, d, 0, 0, 0, 0, time.UTC)
	// reject rollovers such as 2025-02-31
	if t.Day() != d || t.Month() != mon {
		return time.Time{}, false
	}
	return t, true
}
