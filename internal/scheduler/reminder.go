package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"firesafety_reminders/internal/metrics"
	"firesafety_reminders/internal/model"
	"firesafety_reminders/internal/repository"
	"firesafety_reminders/internal/service"
)

// EmailChannel sends one reminder email. *service.EmailSender implements it.
type EmailChannel interface {
	IsConfigured() bool
	Send(ctx context.Context, to, subject, html string) model.DeliveryOutcome
}

// PushChannel fans a notification out to a user's devices.
// *service.Dispatcher implements it.
type PushChannel interface {
	PushEnabled() bool
	SendToUser(ctx context.Context, userID string, n model.Notification) (model.SendResult, error)
}

// ReminderOptions tunes a ReminderScheduler.
type ReminderOptions struct {
	Location            *time.Location
	Concurrency         int
	DashboardURL        string
	InspectionSchedule  string
	MaintenanceSchedule string
}

// TickSummary describes one reminder run.
type TickSummary struct {
	Kind         model.DeadlineKind `json:"kind"`
	Considered   int                `json:"considered"`
	Qualifying   int                `json:"qualifying"`
	EmailsSent   int                `json:"emailsSent"`
	EmailsFailed int                `json:"emailsFailed"`
	PushSent     int                `json:"pushSent"`
	PushFailed   int                `json:"pushFailed"`
	Duration     time.Duration      `json:"-"`
	DurationMs   int64              `json:"durationMs"`
}

// ReminderScheduler finds assets whose deadline is exactly on a threshold day
// and reminds each eligible recipient of the owning tenant by email and push.
//
// Runs of the same kind never overlap: a cron fire or manual trigger that
// arrives while a run is in progress returns ErrTickInProgress.
type ReminderScheduler struct {
	repo    repository.ReminderRepository
	email   EmailChannel
	push    PushChannel
	clock   clockwork.Clock
	metrics *metrics.Metrics
	log     *zap.Logger
	opts    ReminderOptions

	running map[model.DeadlineKind]*atomic.Bool
}

func NewReminderScheduler(
	repo repository.ReminderRepository,
	email EmailChannel,
	push PushChannel,
	clock clockwork.Clock,
	m *metrics.Metrics,
	log *zap.Logger,
	opts ReminderOptions,
) *ReminderScheduler {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	return &ReminderScheduler{
		repo:    repo,
		email:   email,
		push:    push,
		clock:   clock,
		metrics: m,
		log:     log.Named("reminders"),
		opts:    opts,
		running: map[model.DeadlineKind]*atomic.Bool{
			model.DeadlineInspection:  {},
			model.DeadlineMaintenance: {},
		},
	}
}

// Register adds the daily inspection and maintenance jobs to engine.
func (r *ReminderScheduler) Register(engine *Scheduler) error {
	if err := engine.Add("inspection-reminders", r.opts.InspectionSchedule, func(ctx context.Context) {
		r.CheckInspectionReminders(ctx)
	}); err != nil {
		return err
	}
	return engine.Add("maintenance-reminders", r.opts.MaintenanceSchedule, func(ctx context.Context) {
		r.CheckMaintenanceReminders(ctx)
	})
}

func (r *ReminderScheduler) CheckInspectionReminders(ctx context.Context) (*TickSummary, error) {
	return r.run(ctx, InspectionPolicy)
}

func (r *ReminderScheduler) CheckMaintenanceReminders(ctx context.Context) (*TickSummary, error) {
	return r.run(ctx, MaintenancePolicy)
}

// TriggerInspectionRemindersNow runs the inspection check outside the schedule.
func (r *ReminderScheduler) TriggerInspectionRemindersNow(ctx context.Context) (*TickSummary, error) {
	r.log.Info("Manual trigger", zap.Stringer("kind", model.DeadlineInspection))
	return r.CheckInspectionReminders(ctx)
}

// TriggerMaintenanceRemindersNow runs the maintenance check outside the schedule.
func (r *ReminderScheduler) TriggerMaintenanceRemindersNow(ctx context.Context) (*TickSummary, error) {
	r.log.Info("Manual trigger", zap.Stringer("kind", model.DeadlineMaintenance))
	return r.CheckMaintenanceReminders(ctx)
}

type tickCounters struct {
	emailsSent   atomic.Int64
	emailsFailed atomic.Int64
	pushSent     atomic.Int64
	pushFailed   atomic.Int64
}

func (r *ReminderScheduler) run(ctx context.Context, policy Policy) (*TickSummary, error) {
	kind := policy.Kind
	log := r.log.With(zap.Stringer("kind", kind))

	flag := r.running[kind]
	if !flag.CompareAndSwap(false, true) {
		log.Warn("Previous run still in progress, skipped")
		r.metrics.TickFinished(kind.String(), metrics.TickSkipped, 0, 0)
		return nil, model.ErrTickInProgress
	}
	defer flag.Store(false)

	emailOn := r.email != nil && r.email.IsConfigured()
	pushOn := r.push != nil && r.push.PushEnabled()
	if !emailOn && !pushOn {
		log.Warn("No delivery channel configured, skipped")
		r.metrics.TickFinished(kind.String(), metrics.TickSkipped, 0, 0)
		return nil, model.ErrNoChannelConfigured
	}
	if !emailOn {
		log.Warn("Email not configured, sending push reminders only")
	}

	start := r.clock.Now()
	now := start.In(r.opts.Location)
	today := CalendarDate(now, r.opts.Location)
	until := today.AddDate(0, 0, policy.MaxThreshold()+1)

	log.Info("Checking reminders", zap.Time("from", today), zap.Time("until", until))

	assets, err := r.repo.ListAssetsDue(ctx, kind, today, until)
	if err != nil {
		log.Error("Failed to load assets", zap.Error(err))
		r.metrics.TickFinished(kind.String(), metrics.TickError, 0, r.clock.Since(start).Seconds())
		return nil, err
	}

	summary := &TickSummary{Kind: kind, Considered: len(assets)}
	var counters tickCounters

	var g errgroup.Group
	g.SetLimit(r.opts.Concurrency)

	for _, asset := range assets {
		if ctx.Err() != nil {
			break
		}
		if asset.Extinguisher.Status != model.AssetStatusActive {
			continue
		}
		deadline := asset.Extinguisher.Deadline(kind)
		if deadline == nil {
			continue
		}
		days := DaysUntil(*deadline, now, r.opts.Location)
		if !policy.Qualifies(days) {
			continue
		}
		summary.Qualifying++

		if len(asset.Recipients) == 0 {
			log.Debug("No recipients for tenant",
				zap.String("tenant_id", asset.Tenant.ID),
				zap.String("extinguisher_id", asset.Extinguisher.ID),
			)
			continue
		}

		for _, user := range asset.Recipients {
			if !user.IsEligibleRecipient() {
				continue
			}
			g.Go(func() error {
				r.remind(ctx, kind, asset, user, deadline.UTC(), days, emailOn, pushOn, &counters)
				return nil
			})
		}
	}
	// remind reports failures through counters, so Wait never returns an error.
	g.Wait()

	summary.EmailsSent = int(counters.emailsSent.Load())
	summary.EmailsFailed = int(counters.emailsFailed.Load())
	summary.PushSent = int(counters.pushSent.Load())
	summary.PushFailed = int(counters.pushFailed.Load())
	summary.Duration = r.clock.Since(start)
	summary.DurationMs = summary.Duration.Milliseconds()

	log.Info("Reminder check finished",
		zap.Int("considered", summary.Considered),
		zap.Int("qualifying", summary.Qualifying),
		zap.Int("emails_sent", summary.EmailsSent),
		zap.Int("emails_failed", summary.EmailsFailed),
		zap.Int("push_sent", summary.PushSent),
		zap.Int("push_failed", summary.PushFailed),
		zap.Duration("duration", summary.Duration),
	)
	r.metrics.TickFinished(kind.String(), metrics.TickOK, summary.Qualifying, summary.Duration.Seconds())

	return summary, nil
}

// remind delivers one (asset, recipient) pair. Failures are counted and
// logged, never propagated.
func (r *ReminderScheduler) remind(
	ctx context.Context,
	kind model.DeadlineKind,
	asset model.DueAsset,
	user model.User,
	dueDate time.Time,
	days int,
	emailOn, pushOn bool,
	counters *tickCounters,
) {
	log := r.log.With(
		zap.Stringer("kind", kind),
		zap.String("extinguisher_id", asset.Extinguisher.ID),
		zap.String("user_id", user.ID),
		zap.Int("days_until_due", days),
	)

	if emailOn {
		subject, html, err := service.ReminderEmail{
			Kind:          kind,
			Asset:         asset.Extinguisher,
			DueDate:       dueDate,
			DaysUntilDue:  days,
			RecipientName: user.Name,
			CompanyName:   asset.Tenant.CompanyName,
			DashboardURL:  r.opts.DashboardURL,
			SentAt:        r.clock.Now(),
		}.Render()

		outcome := model.DeliveryOutcome{Channel: model.ChannelEmail, Err: err}
		if err == nil {
			outcome = r.email.Send(ctx, user.Email, subject, html)
		}
		if outcome.Success {
			counters.emailsSent.Add(1)
			r.metrics.Delivery(string(model.ChannelEmail), metrics.ResultSent)
		} else {
			counters.emailsFailed.Add(1)
			r.metrics.Delivery(string(model.ChannelEmail), metrics.ResultFailed)
			log.Warn("Reminder email failed", zap.Error(outcome.Err))
		}
	}

	if !pushOn {
		return
	}
	result, err := r.push.SendToUser(ctx, user.ID, reminderNotification(kind, asset.Extinguisher, dueDate, days))
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn("Reminder push lookup failed", zap.Error(err))
	}
	counters.pushSent.Add(int64(result.Sent))
	counters.pushFailed.Add(int64(result.Failed))
}

func reminderNotification(kind model.DeadlineKind, e model.Extinguisher, dueDate time.Time, days int) model.Notification {
	if kind == model.DeadlineMaintenance {
		return model.MaintenanceDue{
			AssetID:      e.ID,
			Location:     e.Location,
			Building:     e.Building,
			DueDate:      dueDate,
			DaysUntilDue: days,
		}
	}
	return model.InspectionDue{
		AssetID:      e.ID,
		Location:     e.Location,
		Building:     e.Building,
		DueDate:      dueDate,
		DaysUntilDue: days,
	}
}
