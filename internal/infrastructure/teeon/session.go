// Package teeon drives the facility's TeeOn booking portal with a headless
// Chromium instance.
package teeon

import (
	"context"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/playwright-community/playwright-go"

	"github.com/example/teetime-scheduler/internal/domain/player"
	"github.com/example/teetime-scheduler/internal/domain/teetime"
	"github.com/example/teetime-scheduler/internal/platform/logging"
)

const (
	DefaultLoginURL    = "https://admin.teeon.com/portal/golfnorth/login"
	DefaultScheduleURL = "https://admin.teeon.com/portal/golfnorth/teetimes/cobblehills"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

type Config struct {
	LoginURL    string
	ScheduleURL string
	Headless    bool
	// StepTimeout bounds any single page operation that carries no deadline
	// of its own.
	StepTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.LoginURL == "" {
		c.LoginURL = DefaultLoginURL
	}
	if c.ScheduleURL == "" {
		c.ScheduleURL = DefaultScheduleURL
	}
	if c.StepTimeout <= 0 {
		c.StepTimeout = 30 * time.Second
	}
	return c
}

// Surface launches one browser per session.
type Surface struct {
	cfg Config
	log *logging.Logger
}

func NewSurface(cfg Config, log *logging.Logger) *Surface {
	if log == nil {
		log = logging.Default()
	}
	return &Surface{cfg: cfg.withDefaults(), log: log.With("component", "teeon")}
}

// Open starts Playwright and a fresh browser context. The session closes
// itself when ctx is done.
func (s *Surface) Open(ctx context.Context) (teetime.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "open session")
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, teetime.WrapProbe(err, "start playwright")
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(s.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, teetime.WrapProbe(err, "launch browser")
	}
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent: playwright.String(userAgent),
		Viewport:  &playwright.Size{Width: 1280, Height: 720},
	})
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, teetime.WrapProbe(err, "create browser context")
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, teetime.WrapProbe(err, "create page")
	}
	ms := float64(s.cfg.StepTimeout.Milliseconds())
	page.SetDefaultTimeout(ms)
	page.SetDefaultNavigationTimeout(ms)

	sess := &Session{
		cfg:     s.cfg,
		log:     s.log,
		pw:      pw,
		browser: browser,
		page:    page,
		done:    make(chan struct{}),
	}
	go sess.watch(ctx)
	return sess, nil
}

// Session is a single browser page on the portal.
type Session struct {
	cfg     Config
	log     *logging.Logger
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page

	once     sync.Once
	done     chan struct{}
	closeErr error
}

func (s *Session) watch(ctx context.Context) {
	select {
	case <-ctx.Done():
		s.log.Debug("context done, closing browser", "error", ctx.Err())
		_ = s.Close()
	case <-s.done:
	}
}

// Close tears down the browser and the Playwright driver. Safe to call more
// than once.
func (s *Session) Close() error {
	s.once.Do(func() {
		close(s.done)
		if err := s.browser.Close(); err != nil {
			s.closeErr = errors.Wrap(err, "close browser")
		}
		if err := s.pw.Stop(); err != nil && s.closeErr == nil {
			s.closeErr = errors.Wrap(err, "stop playwright")
		}
	})
	return s.closeErr
}

// timeout is the remaining budget for one page call in milliseconds.
func (s *Session) timeout(ctx context.Context) *float64 {
	d := s.cfg.StepTimeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			d = left
		}
	}
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return playwright.Float(float64(d.Milliseconds()))
}

// fail prefers the context error so deadline expiry is reported as such
// rather than as whatever the browser said when it was torn down.
func fail(ctx context.Context, err error, msg string) error {
	if cerr := ctx.Err(); cerr != nil {
		return errors.Wrap(cerr, msg)
	}
	return errors.Wrap(err, msg)
}

func (s *Session) navigate(ctx context.Context, target string) error {
	_, err := s.page.Goto(target, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateNetworkidle,
		Timeout:   s.timeout(ctx),
	})
	if err != nil {
		return fail(ctx, err, "navigate "+target)
	}
	return nil
}

func (s *Session) settle(ctx context.Context) error {
	err := s.page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: s.timeout(ctx),
	})
	if err != nil {
		return fail(ctx, err, "wait for page")
	}
	return nil
}

func (s *Session) click(ctx context.Context, loc playwright.Locator, what string) error {
	if err := loc.Click(playwright.LocatorClickOptions{Timeout: s.timeout(ctx)}); err != nil {
		return fail(ctx, err, "click "+what)
	}
	return nil
}

func (s *Session) fill(ctx context.Context, selector, value string) error {
	err := s.page.Locator(selector).First().Fill(value, playwright.LocatorFillOptions{Timeout: s.timeout(ctx)})
	if err != nil {
		return fail(ctx, err, "fill "+selector)
	}
	return nil
}

func (s *Session) content(ctx context.Context) (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fail(ctx, err, "read page")
	}
	return html, nil
}

// search loads the schedule for date and returns the rendered page.
func (s *Session) search(ctx context.Context, date time.Time) (string, error) {
	if err := s.navigate(ctx, s.cfg.ScheduleURL); err != nil {
		return "", teetime.WrapProbe(err, "load schedule")
	}
	found, err := s.page.Evaluate(`(d) => {
		const el = document.querySelector('input[name="date"]');
		if (!el) return false;
		el.value = d;
		return true;
	}`, FormDate(date))
	if err != nil {
		return "", teetime.WrapProbe(fail(ctx, err, "set date"), "search")
	}
	if ok, _ := found.(bool); !ok {
		return "", teetime.ProbeErrorf("schedule page has no %s field", selDateInput)
	}
	if err := s.click(ctx, s.page.Locator(selSubmit).First(), "search"); err != nil {
		return "", teetime.WrapProbe(err, "search")
	}
	if err := s.settle(ctx); err != nil {
		return "", teetime.WrapProbe(err, "search")
	}
	return s.content(ctx)
}

func (s *Session) ListSlots(ctx context.Context, date time.Time) ([]teetime.RawSlot, error) {
	html, err := s.search(ctx, date)
	if err != nil {
		return nil, err
	}
	slots, err := ParseSlots(html)
	if err != nil {
		return nil, err
	}
	s.log.Debug("schedule parsed", "date", date.Format(teetime.DateLayout), "rows", len(slots))
	return slots, nil
}

func (s *Session) Authenticate(ctx context.Context, creds teetime.Credentials) error {
	if err := s.navigate(ctx, s.cfg.LoginURL); err != nil {
		return teetime.WrapProbe(err, "load login page")
	}
	if err := s.fill(ctx, selUsername, creds.Username); err != nil {
		return teetime.WrapProbe(err, "login form")
	}
	if err := s.fill(ctx, selPassword, creds.Password); err != nil {
		return teetime.WrapProbe(err, "login form")
	}
	if err := s.click(ctx, s.page.Locator(selSubmit).First(), "login"); err != nil {
		return teetime.WrapProbe(err, "login form")
	}
	if err := s.settle(ctx); err != nil {
		return teetime.WrapProbe(err, "login")
	}
	html, err := s.content(ctx)
	if err != nil {
		return teetime.WrapProbe(err, "login")
	}
	msg, failed, err := LoginError(html)
	if err != nil {
		return err
	}
	if failed {
		return errors.Mark(errors.Newf("portal rejected login: %s", msg), teetime.ErrAuth)
	}
	return nil
}

// SelectSlot opens the booking form for c, either through its booking link or
// by finding the row on the schedule for date.
func (s *Session) SelectSlot(ctx context.Context, date time.Time, c teetime.Candidate) error {
	if c.BookingHandle != "" {
		target, err := s.resolve(c.BookingHandle)
		if err != nil {
			return errors.Mark(err, teetime.ErrSlotUnavailable)
		}
		if err := s.navigate(ctx, target); err != nil {
			return teetime.WrapProbe(err, "open booking link")
		}
	} else {
		html, err := s.search(ctx, date)
		if err != nil {
			return err
		}
		idx, err := SlotIndex(html, c.Time24)
		if err != nil {
			return err
		}
		if idx < 0 {
			return errors.Mark(errors.Newf("tee time %s not found or not available", c.Time24), teetime.ErrSlotUnavailable)
		}
		btn := s.page.Locator(selSlot).Nth(idx).Locator(selBookButton).First()
		if err := s.click(ctx, btn, "book "+c.Time24); err != nil {
			return teetime.WrapProbe(err, "select slot")
		}
		if err := s.settle(ctx); err != nil {
			return teetime.WrapProbe(err, "select slot")
		}
	}

	n, err := s.page.Locator(selPlayersCount).Count()
	if err != nil {
		return teetime.WrapProbe(fail(ctx, err, "inspect booking form"), "select slot")
	}
	if n == 0 {
		return errors.Mark(errors.Newf("tee time %s no longer offers a booking form", c.Time24), teetime.ErrSlotUnavailable)
	}
	return nil
}

func (s *Session) resolve(handle string) (string, error) {
	base, err := url.Parse(s.cfg.ScheduleURL)
	if err != nil {
		return "", errors.Wrap(err, "schedule url")
	}
	ref, err := url.Parse(handle)
	if err != nil {
		return "", errors.Wrapf(err, "booking link %q", handle)
	}
	return base.ResolveReference(ref).String(), nil
}

func (s *Session) FillPlayers(ctx context.Context, players []player.Player, useCart bool) error {
	count := strconv.Itoa(len(players))
	_, err := s.page.Locator(selPlayersCount).First().SelectOption(
		playwright.SelectOptionValues{Values: &[]string{count}},
		playwright.LocatorSelectOptionOptions{Timeout: s.timeout(ctx)},
	)
	if err != nil {
		return teetime.WrapProbe(fail(ctx, err, "select player count"), "fill players")
	}
	for i, p := range players {
		n := strconv.Itoa(i + 1)
		if err := s.fill(ctx, `input[name="player`+n+`"]`, p.Name); err != nil {
			return teetime.WrapProbe(err, "fill players")
		}
		if p.Email != "" {
			if err := s.fill(ctx, `input[name="email`+n+`"]`, p.Email); err != nil {
				return teetime.WrapProbe(err, "fill players")
			}
		}
		if p.Phone != "" {
			if err := s.fill(ctx, `input[name="phone`+n+`"]`, p.Phone); err != nil {
				return teetime.WrapProbe(err, "fill players")
			}
		}
	}
	cart := "no"
	if useCart {
		cart = "yes"
	}
	radio := s.page.Locator(`input[name="cart"][value="` + cart + `"]`).First()
	if err := radio.Check(playwright.LocatorCheckOptions{Timeout: s.timeout(ctx)}); err != nil {
		return teetime.WrapProbe(fail(ctx, err, "choose cart"), "fill players")
	}
	return nil
}

func (s *Session) Submit(ctx context.Context) (teetime.Outcome, error) {
	if err := s.click(ctx, s.page.Locator(selSubmit).First(), "submit booking"); err != nil {
		return teetime.Outcome{}, teetime.WrapProbe(err, "submit")
	}
	if err := s.settle(ctx); err != nil {
		return teetime.Outcome{}, teetime.WrapProbe(err, "submit")
	}
	html, err := s.content(ctx)
	if err != nil {
		return teetime.Outcome{}, teetime.WrapProbe(err, "submit")
	}
	return ParseOutcome(html)
}
