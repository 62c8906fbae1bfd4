package normalize

import (
	"regexp"
	"strings"
)

// Address is a parsed postal address. Every field is always populated with a
// real value or a safe default; ParseAddress never fails.
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// UnknownAddress is the fixed record returned for absent or placeholder input.
var UnknownAddress = Address{
	Street:  "Unknown",
	City:    "Unknown",
	State:   "",
	Zip:     "",
	Country: "US",
}

// IsUnknown reports whether a is the placeholder address from ParseAddress.
func (a Address) IsUnknown() bool {
	return a.Street == UnknownAddress.Street && a.City == UnknownAddress.City && a.Zip == ""
}

var (
	// 5-digit or 9-digit US ZIP, or Canadian A1A 1A1 postal code.
	usZipRe       = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
	caPostalRe    = regexp.MustCompile(`\b[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d\b`)
	stateTokenRe  = regexp.MustCompile(`^[A-Za-z]{2}$`)
	countryUSRe   = regexp.MustCompile(`(?i)^(us|usa|u\.s\.a?\.?|united states.*)$`)
	countryCanRe  = regexp.MustCompile(`(?i)^(ca|can|canada)$`)
)

// ParseAddress splits a free-text address on commas and infers street, city,
// state/province, postal code and country. Unresolved fields keep safe
// defaults; the function is total and never returns an error.
func ParseAddress(v string) Address {
	s := strings.TrimSpace(v)
	if IsPlaceholder(s) {
		return UnknownAddress
	}

	parts := splitTrim(s, ",")
	out := Address{Street: parts[0], Country: "US"}

	// Locate the postal code anywhere in the comma parts.
	zipPart := -1
	zipRaw := ""
	for i, p := range parts {
		if zip := usZipRe.FindString(p); zip != "" {
			out.Zip = zip
			zipRaw = zip
			zipPart = i
			break
		}
		if zip := caPostalRe.FindString(p); zip != "" {
			out.Zip = strings.ToUpper(zip)
			out.Country = "Canada"
			zipRaw = zip
			zipPart = i
			break
		}
	}

	if zipPart >= 0 {
		// The token right before the postal code is the state/province.
		before := strings.Fields(parts[zipPart][:strings.Index(parts[zipPart], zipRaw)])
		if len(before) > 0 && stateTokenRe.MatchString(before[len(before)-1]) {
			out.State = strings.ToUpper(before[len(before)-1])
		}
		if out.State == "" && zipPart > 0 {
			prev := strings.Fields(parts[zipPart-1])
			if len(prev) > 0 && stateTokenRe.MatchString(prev[len(prev)-1]) {
				out.State = strings.ToUpper(prev[len(prev)-1])
			}
		}
		// City precedes the state/zip segment.
		cityPart := zipPart - 1
		if out.State != "" && cityPart >= 0 && strings.EqualFold(strings.TrimSpace(parts[cityPart]), out.State) {
			cityPart--
		}
		if cityPart >= 1 {
			out.City = parts[cityPart]
		} else if out.State != "" {
			// Single-part "City ST 12345" shape: city is everything before
			// the state token.
			tokens := strings.Fields(parts[zipPart])
			for j, tok := range tokens {
				if strings.EqualFold(tok, out.State) {
					if j > 0 {
						out.City = strings.Join(tokens[:j], " ")
					}
					break
				}
			}
		}
	}

	if out.City == "" && len(parts) >= 2 && zipPart != 1 {
		out.City = parts[1]
	}
	if out.City == "" {
		out.City = "Unknown"
	}

	last := parts[len(parts)-1]
	switch {
	case countryCanRe.MatchString(last):
		out.Country = "Canada"
	case countryUSRe.MatchString(last):
		out.Country = "US"
	}

	return out
}

func splitTrim(s, sep string) []string {
	raw := strings.Split(s, sep)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		out = []string{s}
	}
	return out
}
