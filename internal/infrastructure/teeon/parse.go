package teeon

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/example/teetime-scheduler/internal/domain/teetime"
)

// Markup the facility portal renders.
const (
	selSlot         = ".tee-time-slot"
	selSlotTime     = ".time"
	selSlotSpots    = ".available"
	selSlotPrice    = ".price"
	selBookButton   = "a.book-button"
	selLoginError   = ".login-error"
	selConfirmation = ".confirmation-number"
	selBookingError = ".booking-error"

	selDateInput    = `input[name="date"]`
	selSubmit       = `button[type="submit"]`
	selUsername     = `input[name="username"]`
	selPassword     = `input[name="password"]`
	selPlayersCount = `select[name="players"]`
)

func document(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, teetime.WrapProbe(err, "parse page")
	}
	return doc, nil
}

func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.First().Text()), " ")
}

// ParseSlots extracts every schedule row from a results page.
func ParseSlots(html string) ([]teetime.RawSlot, error) {
	doc, err := document(html)
	if err != nil {
		return nil, err
	}
	var out []teetime.RawSlot
	doc.Find(selSlot).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Find(selBookButton).First().Attr("href")
		out = append(out, teetime.RawSlot{
			TimeLabel: text(s.Find(selSlotTime)),
			SpotsText: text(s.Find(selSlotSpots)),
			PriceText: text(s.Find(selSlotPrice)),
			Handle:    strings.TrimSpace(href),
		})
	})
	return out, nil
}

// SlotIndex returns the position of the bookable row showing time24, or -1.
func SlotIndex(html, time24 string) (int, error) {
	doc, err := document(html)
	if err != nil {
		return -1, err
	}
	idx := -1
	doc.Find(selSlot).EachWithBreak(func(i int, s *goquery.Selection) bool {
		t, err := teetime.Parse12Hour(text(s.Find(selSlotTime)))
		if err != nil || t != time24 {
			return true
		}
		if s.Find(selBookButton).Length() == 0 {
			return true
		}
		idx = i
		return false
	})
	return idx, nil
}

// LoginError returns the portal's login error text, if shown.
func LoginError(html string) (string, bool, error) {
	doc, err := document(html)
	if err != nil {
		return "", false, err
	}
	sel := doc.Find(selLoginError)
	if sel.Length() == 0 {
		return "", false, nil
	}
	msg := text(sel)
	if msg == "" {
		msg = "login rejected"
	}
	return msg, true, nil
}

// ParseOutcome reads the page shown after the booking form is submitted. A
// page with neither marker yields an unconfirmed outcome with no message.
func ParseOutcome(html string) (teetime.Outcome, error) {
	doc, err := document(html)
	if err != nil {
		return teetime.Outcome{}, err
	}
	if c := doc.Find(selConfirmation); c.Length() > 0 {
		if n := text(c); n != "" {
			return teetime.Outcome{Confirmed: true, ConfirmationNumber: n}, nil
		}
	}
	if e := doc.Find(selBookingError); e.Length() > 0 {
		return teetime.Outcome{Message: text(e)}, nil
	}
	return teetime.Outcome{}, nil
}

// FormDate formats a date the way the portal's search form expects (M/D/YYYY).
func FormDate(d time.Time) string {
	return d.Format("1/2/2006")
}
