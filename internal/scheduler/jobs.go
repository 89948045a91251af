package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"financitos/internal/amqp"
	"financitos/internal/core"
	applog "financitos/internal/log"
	"financitos/internal/services"
)

const (
	AutoSyncJobName        = "auto_sync"
	ReminderJobName        = "reminders"
	ReminderWatchJobName   = "reminder_schedule"
	DefaultReminderWatcher = "@every 1m"
)

type SettingsReader interface {
	Get(ctx context.Context) core.AppSettings
}

type SyncRequester interface {
	RequestSync(ctx context.Context, reason string) (services.SyncResult, error)
}

type ReminderSource interface {
	Reminders(ctx context.Context, month string) core.Reminders
}

type ReminderPublisher interface {
	PublishReminder(ctx context.Context, msg *amqp.ReminderMessage) error
}

// AutoSyncJob requests a remote backup when auto-sync and Drive are both
// enabled in the settings.
type AutoSyncJob struct {
	settings SettingsReader
	backup   SyncRequester
}

func NewAutoSyncJob(settings SettingsReader, backup SyncRequester) *AutoSyncJob {
	return &AutoSyncJob{settings: settings, backup: backup}
}

func (j *AutoSyncJob) Name() string { return AutoSyncJobName }

func (j *AutoSyncJob) Run(ctx context.Context) error {
	s := j.settings.Get(ctx)
	if !s.AutoSync || !s.DriveEnabled {
		slog.DebugContext(ctx, "Auto sync disabled", applog.FieldComponent, applog.ComponentScheduler, "job", j.Name())
		return nil
	}
	res, err := j.backup.RequestSync(ctx, "auto")
	if err != nil {
		return fmt.Errorf("auto sync: %w", err)
	}
	slog.InfoContext(ctx, "Auto sync requested",
		applog.FieldComponent, applog.ComponentScheduler,
		"job", j.Name(),
		"queued", res.Queued,
		"file_id", res.FileID)
	return nil
}

// ReminderJob publishes the current month's due-today and overdue pending
// expenses when notifications are enabled.
type ReminderJob struct {
	settings  SettingsReader
	months    ReminderSource
	publisher ReminderPublisher
	now       func() time.Time
}

func NewReminderJob(settings SettingsReader, months ReminderSource, publisher ReminderPublisher, now func() time.Time) *ReminderJob {
	if now == nil {
		now = time.Now
	}
	return &ReminderJob{settings: settings, months: months, publisher: publisher, now: now}
}

func (j *ReminderJob) Name() string { return ReminderJobName }

func (j *ReminderJob) Run(ctx context.Context) error {
	if !j.settings.Get(ctx).NotificationsEnabled {
		return nil
	}

	now := j.now()
	month := core.CurrentMonthKey(now)
	rem := j.months.Reminders(ctx, month)
	if rem.IsEmpty() {
		slog.InfoContext(ctx, "Nothing due", applog.FieldComponent, applog.ComponentScheduler, "job", j.Name(), "month", month)
		return nil
	}

	msg := &amqp.ReminderMessage{
		Month:     month,
		Date:      core.FormatDeadline(now),
		DueToday:  reminderItems(rem.DueToday),
		Overdue:   reminderItems(rem.Overdue),
		Timestamp: now,
	}
	if err := j.publisher.PublishReminder(ctx, msg); err != nil {
		return fmt.Errorf("publish reminder: %w", err)
	}
	return nil
}

func reminderItems(expenses []core.ExpenseEntry) []amqp.ReminderItem {
	items := make([]amqp.ReminderItem, 0, len(expenses))
	for _, e := range expenses {
		items = append(items, amqp.ReminderItem{
			ID:          e.ID,
			Description: e.Description,
			Deadline:    e.Deadline,
			Amount:      core.FormatBRL(e.Amount),
		})
	}
	return items
}

// ReminderScheduleJob keeps the reminder job registered at the
// notification time currently stored in the settings, and unregistered
// while notifications are off.
type ReminderScheduleJob struct {
	scheduler *Scheduler
	settings  SettingsReader
	reminder  Job
}

func NewReminderScheduleJob(s *Scheduler, settings SettingsReader, reminder Job) *ReminderScheduleJob {
	return &ReminderScheduleJob{scheduler: s, settings: settings, reminder: reminder}
}

func (j *ReminderScheduleJob) Name() string { return ReminderWatchJobName }

func (j *ReminderScheduleJob) Run(ctx context.Context) error {
	s := j.settings.Get(ctx)
	current, registered := j.scheduler.Schedule(j.reminder.Name())

	if !s.NotificationsEnabled {
		if registered {
			j.scheduler.RemoveJob(j.reminder.Name())
		}
		return nil
	}

	spec, err := DailySpec(s.NotificationTime)
	if err != nil {
		return err
	}
	if registered && current == spec {
		return nil
	}
	return j.scheduler.AddJob(spec, j.reminder)
}
