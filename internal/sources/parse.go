package sources

import (
	"strconv"
	"strings"
	"unicode"

	"trendhub/internal/models"
)

// parseAvailability maps free text and schema.org ItemAvailability URLs onto
// the closed enum. Unrecognised text counts as in stock.
func parseAvailability(raw string) models.Availability {
	v := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndex(v, "/"); i >= 0 {
		v = v[i+1:]
	}
	v = strings.NewReplacer("-", "", "_", "", " ", "").Replace(v)

	switch {
	case v == "":
		return models.InStock
	case strings.Contains(v, "outofstock"), strings.Contains(v, "soldout"),
		strings.Contains(v, "unavailable"), strings.Contains(v, "discontinued"):
		return models.OutOfStock
	case strings.Contains(v, "preorder"), strings.Contains(v, "presale"):
		return models.PreOrder
	case strings.Contains(v, "limited"), strings.Contains(v, "fewleft"), strings.Contains(v, "onlyfew"):
		return models.Limited
	}
	return models.InStock
}

// parsePrice extracts the first number from a display price such as
// "₹1,299.00" or "Rs. 2 499". Commas and spaces inside the number are
// treated as grouping separators.
func parsePrice(raw string) (float64, bool) {
	var b strings.Builder
	started := false
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
			started = true
		case r == '.' && started:
			b.WriteRune(r)
		case (r == ',' || r == ' ' || r == ' ') && started:
		default:
			if started {
				return finishPrice(b.String())
			}
		}
	}
	if !started {
		return 0, false
	}
	return finishPrice(b.String())
}

func finishPrice(s string) (float64, bool) {
	s = strings.TrimRight(s, ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
