// Package format holds the number, duration and date formatting used by the
// console views.
package format

import (
	"math"
	"strconv"
	"strings"
	"time"
)

var foldUnits = []string{"", "K", "M", "G", "T", "P"}

// FoldNumber shortens n with a metric suffix and at most two decimals.
//
//	FoldNumber(999)     => "999"
//	FoldNumber(1234567) => "1.23M"
func FoldNumber(n float64) string {
	m := 0
	for math.Abs(n) >= 1000 && m < len(foldUnits)-1 {
		m++
		n /= 1000
	}
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(n, 'f', 2, 64), 64)
	if rounded == 0 {
		rounded = 0
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64) + foldUnits[m]
}

var spanUnits = map[byte]int{
	's': 1,
	'm': 60,
	'h': 60 * 60,
	'd': 24 * 60 * 60,
}

// TimeSpanToSeconds parses spans such as "3h", "1d12h" or "90s". Parsing
// stops at the first run of characters that does not end in a unit.
func TimeSpanToSeconds(span string) int {
	secs := 0
	for len(span) > 0 {
		i := strings.IndexAny(span, "smhd")
		if i < 0 {
			return secs
		}
		count, _ := strconv.Atoi(span[:i])
		secs += count * spanUnits[span[i]]
		span = span[i+1:]
	}
	return secs
}

// SecondsToTimespanString is the inverse of TimeSpanToSeconds, omitting
// zero components.
func SecondsToTimespanString(seconds int) string {
	days := seconds / (24 * 60 * 60)
	seconds -= days * 24 * 60 * 60
	hours := seconds / (60 * 60)
	seconds -= hours * 60 * 60
	minutes := seconds / 60
	seconds -= minutes * 60

	var b strings.Builder
	for _, part := range []struct {
		n    int
		unit string
	}{{days, "d"}, {hours, "h"}, {minutes, "m"}, {seconds, "s"}} {
		if part.n > 0 {
			b.WriteString(strconv.Itoa(part.n))
			b.WriteString(part.unit)
		}
	}
	return b.String()
}

// DateToString renders t as "2006/01/02 15:04:05" in t's location.
func DateToString(t time.Time) string {
	return t.Format("2006/01/02 15:04:05")
}

// TranslateDate renders t as "Jan 02 2006 15:04:05".
func TranslateDate(t time.Time) string {
	return t.Format("Jan 02 2006 15:04:05")
}

// TranslateGoDate parses an RFC 3339 timestamp produced by the banshee API.
// Empty or unparsable input renders the current time.
func TranslateGoDate(s string, now time.Time) string {
	if s == "" {
		return TranslateDate(now)
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return TranslateDate(now)
	}
	return TranslateDate(t)
}

// Format substitutes %s, %d and %f in tpl with args in order; %% is a
// literal percent sign. Missing args render as empty strings.
func Format(tpl string, args ...any) string {
	var b strings.Builder
	next := 0
	for i := 0; i < len(tpl); i++ {
		c := tpl[i]
		if c != '%' || i+1 >= len(tpl) {
			b.WriteByte(c)
			continue
		}
		verb := tpl[i+1]
		switch verb {
		case '%':
			b.WriteByte('%')
		case 's', 'd', 'f':
			if next < len(args) {
				b.WriteString(formatArg(verb, args[next]))
			}
			next++
		default:
			b.WriteByte(c)
			continue
		}
		i++
	}
	return b.String()
}

func formatArg(verb byte, arg any) string {
	switch verb {
	case 'd':
		switch v := arg.(type) {
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		case uint32:
			return strconv.FormatUint(uint64(v), 10)
		case float64:
			return strconv.FormatInt(int64(v), 10)
		case string:
			n, _ := strconv.ParseFloat(v, 64)
			return strconv.FormatInt(int64(n), 10)
		}
	case 'f':
		switch v := arg.(type) {
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case string:
			n, _ := strconv.ParseFloat(v, 64)
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	switch v := arg.(type) {
	case string:
		return v
	case interface{ String() string }:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}
