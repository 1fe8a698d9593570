package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// Format checker regexes. The patterns follow the Merchant Center attribute
// syntax for US/English feeds.
var (
	urlRE          = regexp.MustCompile(`(?i)^https?://`)
	priceRE        = regexp.MustCompile(`^\s*(\d+(?:\.\d{1,2})?)\s*([A-Z]{3})\s*$`)
	isoDatetimeRE  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(Z|[+\-]\d{4})$`)
	datetimeRange  = regexp.MustCompile(`^\s*(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?:Z|[+\-]\d{4}))\s*/\s*(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}(?:Z|[+\-]\d{4}))\s*$`)
	dimensionRE    = regexp.MustCompile(`(?i)^\s*\d+(\.\d+)?\s*(in|cm|lb|oz|g|kg)\s*$`)
	unitMeasureRE  = regexp.MustCompile(`(?i)^\s*\d+(\.\d+)?\s*(oz|lb|mg|g|kg|floz|pt|qt|gal|ml|cl|l|cbm|in|ft|yd|cm|m|sqft|sqm|ct)\s*$`)
	unitBaseRE     = regexp.MustCompile(`(?i)^\s*(1|2|4|8|10|75|100|750|1000)\s*(ml|cl|l|cbm|oz|lb|mg|g|kg|in|ft|yd|cm|m|sqft|sqm|ct)\s*$`)
	nonDigitsRE    = regexp.MustCompile(`[^0-9]`)
	listSeparators = regexp.MustCompile(`[;,]\s*`)
)

var availabilityValues = map[string]bool{
	"in_stock":     true,
	"out_of_stock": true,
	"preorder":     true,
	"backorder":    true,
}

var conditionValues = map[string]bool{
	"new":         true,
	"refurbished": true,
	"used":        true,
}

// formatChecker reports whether a value satisfies a format, returning a
// user-facing message when it does not.
type formatChecker func(value string) (bool, string)

// formatCheckers maps rulebook format names to their checkers. The rulebook
// names the format; the check itself lives here.
var formatCheckers = map[string]formatChecker{
	"url": func(v string) (bool, string) {
		if urlRE.MatchString(v) {
			return true, ""
		}
		return false, "must start with http:// or https://"
	},
	"url_list": func(v string) (bool, string) {
		for _, part := range splitList(v) {
			if !urlRE.MatchString(part) {
				return false, fmt.Sprintf("list entry %q must start with http:// or https://", part)
			}
		}
		return true, ""
	},
	"price": func(v string) (bool, string) {
		if priceRE.MatchString(v) {
			return true, ""
		}
		return false, "must be formatted as '<amount> <CURRENCY>', e.g. '15.00 USD'"
	},
	"availability": func(v string) (bool, string) {
		if availabilityValues[strings.ToLower(v)] {
			return true, ""
		}
		return false, "must be one of in_stock, out_of_stock, preorder, backorder"
	},
	"condition": func(v string) (bool, string) {
		if conditionValues[strings.ToLower(v)] {
			return true, ""
		}
		return false, "must be one of new, refurbished, used"
	},
	"iso_datetime": func(v string) (bool, string) {
		if isoDatetimeRE.MatchString(strings.TrimSpace(v)) {
			return true, ""
		}
		return false, "must be an ISO 8601 datetime, e.g. 2026-12-25T13:00-0800"
	},
	"iso_datetime_range": func(v string) (bool, string) {
		if datetimeRange.MatchString(v) {
			return true, ""
		}
		return false, "must be an ISO 8601 'start/end' range, e.g. 2026-02-24T11:07+0100/2026-02-29T23:07+0100"
	},
	"dimension": func(v string) (bool, string) {
		if dimensionRE.MatchString(v) {
			return true, ""
		}
		return false, "must be '<number> <unit>' (units: in, cm, lb, oz, g, kg)"
	},
	"unit_measure": func(v string) (bool, string) {
		if unitMeasureRE.MatchString(v) {
			return true, ""
		}
		return false, "must be a numeric value with a supported unit, e.g. '1.5kg'"
	},
	"unit_base_measure": func(v string) (bool, string) {
		if unitBaseRE.MatchString(v) {
			return true, ""
		}
		return false, "must use an allowed base quantity and unit, e.g. '100 ml'"
	},
	"gtin": func(v string) (bool, string) {
		digits := nonDigitsRE.ReplaceAllString(v, "")
		switch len(digits) {
		case 8, 12, 13, 14:
		default:
			return false, "must be 8, 12, 13, or 14 digits (after removing dashes and spaces)"
		}
		if !validGS1Checksum(digits) {
			return false, "has an invalid check digit per GS1 rules"
		}
		return true, ""
	},
	"yes_no": func(v string) (bool, string) {
		lower := strings.ToLower(v)
		if lower == "yes" || lower == "no" {
			return true, ""
		}
		return false, "must be 'yes' or 'no' (default is 'yes')"
	},
}

// checkFormat applies the named format checker. Unknown format names pass:
// the rulebook may describe formats the engine has no checker for yet.
func checkFormat(format, value string) (bool, string) {
	checker, ok := formatCheckers[format]
	if !ok {
		return true, ""
	}
	return checker(value)
}

// splitList splits a comma or semicolon separated list value.
func splitList(value string) []string {
	parts := listSeparators.Split(value, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// validGS1Checksum verifies the GS1 check digit: weighting 3,1,3,1... from
// the rightmost body digit, check digit equals (10 - total mod 10) mod 10.
func validGS1Checksum(digits string) bool {
	if len(digits) < 2 {
		return false
	}
	check := int(digits[len(digits)-1] - '0')
	total := 0
	flip := true
	for i := len(digits) - 2; i >= 0; i-- {
		d := int(digits[i] - '0')
		if flip {
			total += d * 3
		} else {
			total += d
		}
		flip = !flip
	}
	return (10-total%10)%10 == check
}
