// Package notifier delivers agenda reminders.
//
// A Notifier sends one Message per run. SMTPNotifier mails it through an
// authenticated STARTTLS connection (Gmail app passwords by default), while
// DryRunNotifier prints what would be sent. Delivery failures are reported as
// a *DispatchError.
package notifier
