package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Notifier defines the interface for delivering a reminder
type Notifier interface {
	// Notify sends msg to the configured recipients
	Notify(ctx context.Context, msg Message) error
}

// Message is a plain-text reminder with optional attachments.
type Message struct {
	Subject     string
	Body        string
	Attachments []Attachment
}

// Attachment is a file sent along with a Message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// ErrDispatch is matched by every *DispatchError.
var ErrDispatch = errors.New("notification could not be sent")

// DispatchError reports a failed delivery.
type DispatchError struct {
	Channel    string
	Recipients []string
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("%s notification to %s failed: %v", e.Channel, strings.Join(e.Recipients, ", "), e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Is(target error) bool {
	return target == ErrDispatch
}

// NormalizeBody turns literal "\n" escape sequences, as typed on a command
// line, into real newlines.
func NormalizeBody(body string) string {
	return strings.ReplaceAll(body, `\n`, "\n")
}
