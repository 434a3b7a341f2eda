package teetime

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	leadingInt = regexp.MustCompile(`\d+`)
	priceRe    = regexp.MustCompile(`\d+(?:\.\d{1,2})?`)
)

// Normalize converts a rendered row into a Candidate. A row with none of its
// fields present, or with a time label that cannot be read, means the page
// structure is not what we expect and is reported as ErrProbe. Missing or
// non-numeric spot text is treated as zero open spots.
func Normalize(raw RawSlot) (Candidate, error) {
	label := strings.TrimSpace(raw.TimeLabel)
	if label == "" && strings.TrimSpace(raw.SpotsText) == "" && strings.TrimSpace(raw.PriceText) == "" && raw.Handle == "" {
		return Candidate{}, ProbeErrorf("slot element has no recognisable fields")
	}
	t24, err := Parse12Hour(label)
	if err != nil {
		return Candidate{}, WrapProbe(err, "slot time")
	}

	c := Candidate{
		DisplayTime:   label,
		Time24:        t24,
		BookingHandle: strings.TrimSpace(raw.Handle),
	}
	if m := leadingInt.FindString(raw.SpotsText); m != "" {
		c.AvailableSpots, _ = strconv.Atoi(m)
	}
	if m := priceRe.FindString(strings.ReplaceAll(raw.PriceText, ",", "")); m != "" {
		if p, err := strconv.ParseFloat(m, 64); err == nil {
			c.Price = &p
		}
	}
	return c, nil
}
