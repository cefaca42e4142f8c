/*
scheduler.go - Cron-driven alert jobs

PURPOSE:
  Runs the recurring alert checks: one cron job per configured offset
  rule (D-2, D-1, D-0, ...) plus a weekly look-ahead digest. Each tick
  is stateless: load the year's snapshot, classify at the configured
  tier, evaluate every event, and notify on matches.

DEDUPLICATION:
  The engine itself never remembers what it fired. The scheduler keeps
  each (alert type, event, offset) pair to one notification per tick
  date via the append-only alert log. A notification failure is logged
  and retried on the next tick because nothing was written to the log.

SEE ALSO:
  - calendar/evaluator.go: the weekend-shift decision logic
  - store/sqlite: alert log persistence
  - config: AlertRule and WeeklyPreview schedules
*/
package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/opex-engine/calendar"
	"github.com/warp/opex-engine/config"
	"github.com/warp/opex-engine/factory"
	"github.com/warp/opex-engine/notify"
	"github.com/warp/opex-engine/store/sqlite"
)

const (
	alertTypeOffset = "offset"
	alertTypeWeekly = "weekly"
)

// AlertScheduler owns the cron runner and the alert jobs.
type AlertScheduler struct {
	Store    *sqlite.Store
	Loader   *factory.Loader
	Notifier notify.Notifier

	// Clock supplies the reference instant per tick; tests override it.
	Clock func() time.Time

	tier   calendar.Tier
	rules  []config.AlertRule
	weekly config.WeeklyPreview
	cron   *cron.Cron
}

// NewAlertScheduler builds a scheduler from the loaded config. The
// cron runner evaluates schedules in the configured timezone so that
// "9am" means 9am where the exchange lives.
func NewAlertScheduler(cfg *config.Config, store *sqlite.Store, loader *factory.Loader, notifier notify.Notifier) (*AlertScheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", cfg.Timezone, err)
	}

	s := &AlertScheduler{
		Store:    store,
		Loader:   loader,
		Notifier: notifier,
		Clock:    func() time.Time { return time.Now().In(loc) },
		tier:     cfg.AlertTier(),
		rules:    cfg.Alerts,
		weekly:   cfg.Weekly,
		cron:     cron.New(cron.WithLocation(loc)),
	}

	for _, rule := range cfg.Alerts {
		rule := rule
		if _, err := s.cron.AddFunc(rule.Schedule, func() { s.RunOffsetCheck(context.Background(), rule.OffsetDays) }); err != nil {
			return nil, fmt.Errorf("alert schedule %q: %w", rule.Schedule, err)
		}
	}
	if _, err := s.cron.AddFunc(cfg.Weekly.Schedule, func() { s.RunWeeklyPreview(context.Background()) }); err != nil {
		return nil, fmt.Errorf("weekly schedule %q: %w", cfg.Weekly.Schedule, err)
	}

	return s, nil
}

// Start begins the cron runner.
func (s *AlertScheduler) Start() {
	s.cron.Start()
	log.Printf("[Scheduler] Started: %d offset rule(s) at tier %s, weekly window %d days",
		len(s.rules), s.tier, s.weekly.WindowDays)
}

// Stop halts the cron runner and waits for running jobs to finish.
func (s *AlertScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Scheduler] Stopped")
}

// RunOffsetCheck evaluates one D-N rule against today's snapshot and
// notifies on every event whose weekend-normalized target matches. Near
// New Year the target date can land in the next calendar year, so the
// check spans both years' snapshots.
func (s *AlertScheduler) RunOffsetCheck(ctx context.Context, offsetDays int) {
	now := s.Clock()
	target := calendar.DateOf(now).AddDays(offsetDays)

	events, ok := s.classified(ctx, now.Year(), target.Year())
	if !ok {
		return
	}

	for _, ev := range events {
		decision, err := calendar.ShouldFire(now, ev, offsetDays)
		if err != nil {
			log.Printf("[Scheduler] Offset check failed: %v", err)
			return
		}
		if !decision.Fire {
			continue
		}
		s.fire(ctx, now, ev, offsetDays, decision.EffectiveDate)
	}
}

// RunWeeklyPreview sends the look-ahead digest for the configured
// window. Fires at most once per tick date. A window straddling New
// Year draws events from both years' snapshots.
func (s *AlertScheduler) RunWeeklyPreview(ctx context.Context) {
	now := s.Clock()
	windowEnd := calendar.DateOf(now).AddDays(s.weekly.WindowDays)

	events, ok := s.classified(ctx, now.Year(), windowEnd.Year())
	if !ok {
		return
	}

	decision, err := calendar.ShouldFireWindow(now, events, s.weekly.WindowDays)
	if err != nil {
		log.Printf("[Scheduler] Weekly preview failed: %v", err)
		return
	}
	if !decision.Fire {
		log.Printf("[Scheduler] Weekly preview: no events between %s and %s", decision.Start, decision.End)
		return
	}

	firedOn := calendar.DateOf(now).String()
	logged, err := s.Store.WasAlertLogged(ctx, alertTypeWeekly, "", decision.Start.String(), s.weekly.WindowDays, firedOn)
	if err != nil {
		log.Printf("[Scheduler] Alert log lookup failed: %v", err)
		return
	}
	if logged {
		return
	}

	msg := notify.WeeklyPreview(decision.Events, decision.Start, decision.End, now)
	if err := s.Notifier.Send(ctx, msg); err != nil {
		log.Printf("[Scheduler] Weekly notification failed: %v", err)
		return
	}

	rec := sqlite.AlertRecord{
		ID:            fmt.Sprintf("%s:%s:%d:%s", alertTypeWeekly, decision.Start, s.weekly.WindowDays, firedOn),
		AlertType:     alertTypeWeekly,
		EventDate:     decision.Start.String(),
		OffsetDays:    s.weekly.WindowDays,
		EffectiveDate: decision.End.String(),
		FiredOn:       firedOn,
		Message:       msg.Content,
	}
	if err := s.Store.LogAlert(ctx, rec); err != nil {
		log.Printf("[Scheduler] Failed to log weekly alert: %v", err)
	}
	log.Printf("[Scheduler] Weekly preview sent: %d event(s)", len(decision.Events))
}

// fire sends one offset alert unless an equivalent one already went
// out today.
func (s *AlertScheduler) fire(ctx context.Context, now time.Time, ev calendar.Event, offsetDays int, effective calendar.TimePoint) {
	firedOn := calendar.DateOf(now).String()
	kind := string(ev.EventKind())
	eventDate := ev.EventDate().String()

	logged, err := s.Store.WasAlertLogged(ctx, alertTypeOffset, kind, eventDate, offsetDays, firedOn)
	if err != nil {
		log.Printf("[Scheduler] Alert log lookup failed: %v", err)
		return
	}
	if logged {
		return
	}

	msg := notify.EventAlert(ev, offsetDays, now)
	if err := s.Notifier.Send(ctx, msg); err != nil {
		log.Printf("[Scheduler] Notification failed for %s %s: %v", kind, eventDate, err)
		return
	}

	rec := sqlite.AlertRecord{
		ID:            fmt.Sprintf("%s:%s:%s:%d:%s", alertTypeOffset, kind, eventDate, offsetDays, firedOn),
		AlertType:     alertTypeOffset,
		EventKind:     kind,
		EventDate:     eventDate,
		OffsetDays:    offsetDays,
		EffectiveDate: effective.String(),
		FiredOn:       firedOn,
		Message:       msg.Content,
	}
	if err := s.Store.LogAlert(ctx, rec); err != nil {
		log.Printf("[Scheduler] Failed to log alert: %v", err)
		return
	}
	log.Printf("[Scheduler] Alert fired: %s on %s (D-%d)", kind, eventDate, offsetDays)
}

// classified loads each distinct year's snapshot, filters to the
// configured tier, and merges the results in chronological order. A
// degraded source logs and contributes no events; the scheduler stays
// quiet rather than guessing.
func (s *AlertScheduler) classified(ctx context.Context, years ...int) ([]calendar.Event, bool) {
	var events []calendar.Event
	seen := make(map[int]bool, len(years))

	for _, year := range years {
		if seen[year] {
			continue
		}
		seen[year] = true

		cal, err := s.Loader.Load(ctx, year)
		if err != nil {
			log.Printf("[Scheduler] Calendar for %d degraded: %v", year, err)
		}

		yearEvents, err := calendar.Classify(cal, s.tier)
		if err != nil {
			log.Printf("[Scheduler] Classification failed: %v", err)
			return nil, false
		}
		events = append(events, yearEvents...)
	}

	if len(seen) > 1 {
		calendar.SortEvents(events)
	}
	return events, true
}
