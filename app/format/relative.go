package format

import (
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	minutesInDay           = 1440
	minutesInAlmostTwoDays = 2520
	minutesInMonth         = 43200
	minutesInTwoMonths     = 86400
)

// TimeAgo describes t relative to now in words, e.g. "5 minutes ago",
// "1 hour ago" or "in 3 days". Seconds are not distinguished below a minute
// and a leading "about " qualifier is dropped.
func TimeAgo(t, now time.Time) string {
	earlier, later := t, now
	future := t.After(now)
	if future {
		earlier, later = now, t
	}

	phrase := distance(earlier, later)
	if future {
		phrase = "in " + phrase
	} else {
		phrase += " ago"
	}
	return strings.TrimPrefix(phrase, "about ")
}

func distance(earlier, later time.Time) string {
	seconds := math.Trunc(later.Sub(earlier).Seconds())
	minutes := int(math.Round(seconds / 60))

	switch {
	case minutes < 1:
		return "less than a minute"
	case minutes < 2:
		return "1 minute"
	case minutes < 45:
		return fmt.Sprintf("%d minutes", minutes)
	case minutes < 90:
		return "about 1 hour"
	case minutes < minutesInDay:
		return "about " + plural(roundDiv(minutes, 60), "hour")
	case minutes < minutesInAlmostTwoDays:
		return "1 day"
	case minutes < minutesInMonth:
		return plural(roundDiv(minutes, minutesInDay), "day")
	case minutes < minutesInTwoMonths:
		return "about " + plural(roundDiv(minutes, minutesInMonth), "month")
	}

	months := monthsBetween(earlier, later)
	if months < 12 {
		return plural(roundDiv(minutes, minutesInMonth), "month")
	}

	years := months / 12
	switch sinceStartOfYear := months % 12; {
	case sinceStartOfYear < 3:
		return "about " + plural(years, "year")
	case sinceStartOfYear < 9:
		return "over " + plural(years, "year")
	default:
		return "almost " + plural(years+1, "year")
	}
}

func roundDiv(n, d int) int {
	return int(math.Round(float64(n) / float64(d)))
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// monthsBetween counts whole calendar months from earlier to later.
func monthsBetween(earlier, later time.Time) int {
	later = later.In(earlier.Location())
	months := (later.Year()-earlier.Year())*12 + int(later.Month()) - int(earlier.Month())
	anniversary := earlier.AddDate(0, months, 0)
	if anniversary.After(later) {
		months--
	}
	return months
}
