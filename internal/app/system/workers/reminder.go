package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goalstore "github.com/Pythagora-io/okrtracker/internal/app/store/goals"
	settingsstore "github.com/Pythagora-io/okrtracker/internal/app/store/settings"
	userstore "github.com/Pythagora-io/okrtracker/internal/app/store/users"
	"github.com/Pythagora-io/okrtracker/internal/app/system/mailer"
	"github.com/Pythagora-io/okrtracker/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// WeeklyReminder is a background worker that emails active ICs when the
// configured weekly schedule fires. It checks the schedule once a minute so
// admins can change it without a restart.
type WeeklyReminder struct {
	users    *userstore.Store
	goals    *goalstore.Store
	settings *settingsstore.Store
	sender   mailer.Sender
	baseURL  string
	siteName string
	log      *zap.Logger
	interval time.Duration
	lastFire time.Time
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewWeeklyReminder creates the reminder worker. baseURL is the public URL of
// the app, used in email links.
func NewWeeklyReminder(users *userstore.Store, goals *goalstore.Store, settings *settingsstore.Store, sender mailer.Sender, baseURL, siteName string, logger *zap.Logger) *WeeklyReminder {
	return &WeeklyReminder{
		users:    users,
		goals:    goals,
		settings: settings,
		sender:   sender,
		baseURL:  baseURL,
		siteName: siteName,
		log:      logger,
		interval: time.Minute,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the schedule-check loop.
func (w *WeeklyReminder) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("weekly reminder worker started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *WeeklyReminder) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("weekly reminder worker stopped")
}

func (w *WeeklyReminder) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.tick(time.Now())
		}
	}
}

// tick checks whether the configured schedule matches the current minute in
// the configured timezone and, if so, sends the reminders. lastFire guards
// against double-sends inside the same minute.
func (w *WeeklyReminder) tick(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := w.settings.Get(ctx)
	if err != nil {
		w.log.Error("failed to load automation settings", zap.Error(err))
		return
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		w.log.Error("invalid timezone in settings", zap.String("timezone", cfg.Timezone), zap.Error(err))
		return
	}

	local := now.In(loc)
	if int(local.Weekday()) != cfg.DayOfWeek || local.Hour() != cfg.Hour || local.Minute() != cfg.Minute {
		return
	}
	if !w.lastFire.IsZero() && local.Sub(w.lastFire) < time.Minute {
		return
	}
	w.lastFire = local

	w.sendReminders(ctx, local)
}

func (w *WeeklyReminder) sendReminders(ctx context.Context, now time.Time) {
	ics, err := w.users.ListActiveICs(ctx)
	if err != nil {
		w.log.Error("failed to list ICs for weekly reminder", zap.Error(err))
		return
	}

	weekStart := models.StartOfWeek(now)
	weekOf := weekStart.Format("Jan 2, 2006")

	sent := 0
	for _, ic := range ics {
		// Skip anyone who already has a sheet for this week.
		if _, err := w.goals.GetByUserWeek(ctx, ic.ID, weekStart); err == nil {
			continue
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			w.log.Error("failed to check goal sheet before reminder",
				zap.String("user_id", ic.ID.Hex()), zap.Error(err))
			continue
		}

		e := mailer.BuildWeeklyReminderEmail(mailer.GoalNotificationData{
			SiteName:      w.siteName,
			RecipientName: ic.DisplayName(),
			WeekOf:        weekOf,
			Link:          fmt.Sprintf("%s/goals", w.baseURL),
		})
		e.To = ic.Email
		if err := w.sender.Send(ctx, e); err != nil {
			w.log.Error("failed to send weekly reminder",
				zap.String("to", ic.Email), zap.Error(err))
			continue
		}
		sent++
	}

	if sent > 0 {
		w.log.Info("weekly reminders sent", zap.Int("count", sent))
	}
}
