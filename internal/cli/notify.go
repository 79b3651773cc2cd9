package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/inovar-agenda/internal/calendar"
	"github.com/pfrederiksen/inovar-agenda/internal/config"
	"github.com/pfrederiksen/inovar-agenda/internal/event"
	"github.com/pfrederiksen/inovar-agenda/internal/logger"
	"github.com/pfrederiksen/inovar-agenda/internal/notifier"
)

type notifyOptions struct {
	file   string
	now    string
	dryRun bool
	force  bool
}

func newNotifyCmd(a *app) *cobra.Command {
	opts := &notifyOptions{}

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Mail a reminder when the next agenda event is due",
		Long: `Reads the extracted agenda, finds the upcoming events and mails a reminder
listing them when today is the day of the next event, or when today is a
Saturday and the next event falls within the following six days. Exits 0
without sending anything otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runNotify(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.file, "file", "", "Agenda JSON file (default agenda.json_file in the data directory)")
	cmd.Flags().StringVar(&opts.now, "now", "", "Reference time, RFC 3339 or YYYY-MM-DD HH:MM (default current time)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Print the email instead of sending it")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Send even when no reminder is due")

	return cmd
}

func (a *app) runNotify(ctx context.Context, opts *notifyOptions) error {
	cfg, err := a.loadConfig(notifySections(opts.dryRun)...)
	if err != nil {
		return err
	}

	store, err := a.openStorage(cfg)
	if err != nil {
		return err
	}

	file := opts.file
	if file == "" {
		file = cfg.Agenda.JSONFile
	}

	records, err := store.LoadRecords(file)
	if err != nil {
		return fmt.Errorf("loading agenda: %w", err)
	}

	logger.Info("Agenda loaded", logger.Fields{
		"path":    store.Path(file),
		"records": len(records),
	})

	return a.notify(ctx, cfg, records, opts)
}

func notifySections(dryRun bool) []config.Section {
	if dryRun {
		return []config.Section{config.SectionAgenda}
	}
	return []config.Section{config.SectionAgenda, config.SectionMail}
}

// notify selects the upcoming events and sends the reminder when it is due
func (a *app) notify(ctx context.Context, cfg *config.Config, records []event.Record, opts *notifyOptions) error {
	loc, err := cfg.Agenda.Location()
	if err != nil {
		return err
	}
	now, err := a.resolveNow(opts.now, loc)
	if err != nil {
		return err
	}

	cols := cfg.Agenda.Columns()
	sel := event.SelectWithColumns(records, cols, now)
	logSelection(sel)

	if sel.Closest == nil {
		logger.Info("No upcoming events, no email will be sent", nil)
		dumpAgenda(records)
		return nil
	}

	if !sel.ShouldNotify && !opts.force {
		logger.Info("Notification conditions not met today, no email will be sent", logger.Fields{
			"weekday":    now.Weekday().String(),
			"days_until": sel.DaysUntil,
		})
		dumpAgenda(records)
		return nil
	}

	n, err := a.notifierFor(cfg, opts.dryRun)
	if err != nil {
		return err
	}

	if err := n.Notify(ctx, buildMessage(sel, cols)); err != nil {
		return err
	}

	logger.Info("Reminder dispatched", logger.Fields{
		"subject": sel.Subject,
		"dry_run": opts.dryRun,
	})
	return nil
}

func (a *app) notifierFor(cfg *config.Config, dryRun bool) (notifier.Notifier, error) {
	if dryRun {
		return notifier.NewDryRunNotifier(a.stdout, cfg.Mail.Receivers...), nil
	}
	return a.newNotifier(cfg.Mail)
}

// buildMessage turns a selection into the reminder email, attaching the
// closest event as a calendar invite
func buildMessage(sel event.Selection, cols event.Columns) notifier.Message {
	msg := notifier.Message{
		Subject: sel.Subject,
		Body:    sel.Body,
	}

	if sel.Closest != nil {
		inv := calendar.NewInvite(*sel.Closest, sel.ClosestRange, cols)
		msg.Attachments = append(msg.Attachments, notifier.Attachment{
			Name:        calendar.FileName,
			ContentType: calendar.ContentType,
			Data:        []byte(calendar.GenerateICS(inv)),
		})
	}

	return msg
}

func logSelection(sel event.Selection) {
	logger.SetGauge("events.future", float64(len(sel.FutureEvents)))

	fields := logger.Fields{
		"now":           sel.Now.Format("2006-01-02 15:04"),
		"future_events": len(sel.FutureEvents),
		"skipped":       sel.Skipped,
	}
	if sel.Closest != nil {
		fields["closest_event"] = sel.ClosestRange.Key()
		fields["days_until"] = sel.DaysUntil
		fields["is_day_of_event"] = sel.IsDayOfEvent
		fields["is_saturday_within_week"] = sel.IsSaturdayWithinWeek
		fields["should_notify"] = sel.ShouldNotify
	}
	logger.Info("Upcoming events selected", fields)
}

// dumpAgenda logs the complete agenda at debug level
func dumpAgenda(records []event.Record) {
	logger.Debug("Full agenda", logger.Fields{"agenda": records})
}
