package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Field normalizers for loosely-typed provider data.
//
// Rules:
// - Data errors never propagate as errors. Every function resolves bad input
//   to nil or a safe fixed default.
// - Output formats are canonical: dates are YYYY-MM-DD, phones are
//   (NXX) NXX-XXXX, times pass through only when they already look like
//   clock times.

// DateRole selects the output shape of NormalizeDate.
type DateRole string

const (
	RoleDate      DateRole = "date"
	RoleTime      DateRole = "time"
	RoleTimestamp DateRole = "timestamp"
)

// placeholderValues are provider strings that mean "the caller did not give
// a usable value". They normalize to nil regardless of role.
var placeholderValues = map[string]struct{}{
	"":                {},
	"null":            {},
	"undefined":       {},
	"unknown":         {},
	"n/a":             {},
	"none":            {},
	"tbd":             {},
	"to be confirmed": {},
	"next week":       {},
	"morning":         {},
	"afternoon":       {},
	"evening":         {},
	"tonight":         {},
}

var (
	epochDigitsRe = regexp.MustCompile(`^\d{10,}$`)
	clockTimeRe   = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
)

// dateLayouts are tried in order when a date-role string is not an epoch.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	time.RFC3339,
	"2006-01-02 15:04:05",
}

// IsPlaceholder reports whether s is a value providers use to mean "unknown".
func IsPlaceholder(s string) bool {
	_, ok := placeholderValues[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// NormalizeDate coerces a provider date/time value into its canonical string
// form, or nil when the value is absent, a placeholder, or unparseable.
//
// v may be a string or any numeric type; numerics are epoch milliseconds.
// A string of 10+ digits is also treated as epoch milliseconds.
func NormalizeDate(v any, role DateRole) *string {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if IsPlaceholder(s) {
			return nil
		}
		if epochDigitsRe.MatchString(s) {
			ms, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil
			}
			return strptr(formatEpochMillis(ms, role))
		}
		return normalizeDateString(s, role)
	case float64:
		return strptr(formatEpochMillis(int64(t), role))
	case float32:
		return strptr(formatEpochMillis(int64(t), role))
	case int:
		return strptr(formatEpochMillis(int64(t), role))
	case int64:
		return strptr(formatEpochMillis(t, role))
	default:
		return nil
	}
}

func normalizeDateString(s string, role DateRole) *string {
	switch role {
	case RoleTime:
		// Only accept values that already look like a clock time; free text
		// ("around 3pm") must not be guessed at.
		if clockTimeRe.MatchString(s) {
			return strptr(s)
		}
		return nil
	case RoleDate:
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return strptr(ts.Format("2006-01-02"))
			}
		}
		return nil
	default:
		if ts, err := time.Parse(time.RFC3339, s); err == nil {
			return strptr(ts.UTC().Format(time.RFC3339))
		}
		for _, layout := range dateLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return strptr(ts.UTC().Format(time.RFC3339))
			}
		}
		return nil
	}
}

func formatEpochMillis(ms int64, role DateRole) string {
	ts := time.UnixMilli(ms).UTC()
	switch role {
	case RoleDate:
		return ts.Format("2006-01-02")
	case RoleTime:
		return ts.Format("15:04:05")
	default:
		return ts.Format(time.RFC3339)
	}
}

// PlaceholderPhone is returned for any input that is not a valid NANP number.
const PlaceholderPhone = "(555) 555-5555"

var nonDigitRe = regexp.MustCompile(`\D`)

// FormatPhone strips non-digits and formats a 10-digit (or 11-digit with
// leading country code 1) number as (NXX) NXX-XXXX. Anything else yields
// PlaceholderPhone; malformed input never passes through.
func FormatPhone(v string) string {
	digits := nonDigitRe.ReplaceAllString(v, "")
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return PlaceholderPhone
	}
	return "(" + digits[0:3] + ") " + digits[3:6] + "-" + digits[6:10]
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// CleanEmail strips all whitespace from v and validates the result against a
// permissive email pattern. Returns nil on absence or failure.
func CleanEmail(v string) *string {
	s := strings.Join(strings.Fields(v), "")
	if s == "" || !emailRe.MatchString(s) {
		return nil
	}
	return strptr(s)
}

func strptr(s string) *string { return &s }
