package notifier

import (
	"context"
	"fmt"
	"io"
	"os"
)

// DryRunNotifier prints what would be sent without actually sending it
type DryRunNotifier struct {
	out        io.Writer
	recipients []string
}

// NewDryRunNotifier creates a new dry-run notifier writing to out (stdout when nil)
func NewDryRunNotifier(out io.Writer, recipients ...string) *DryRunNotifier {
	if out == nil {
		out = os.Stdout
	}
	return &DryRunNotifier{out: out, recipients: recipients}
}

// Notify prints the message that would be sent
func (n *DryRunNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	fmt.Fprintln(n.out, "--- Email (dry run) ---")
	if len(n.recipients) > 0 {
		fmt.Fprintf(n.out, "To: %v\n", n.recipients)
	}
	fmt.Fprintf(n.out, "Subject: %s\n\n", msg.Subject)
	fmt.Fprintln(n.out, NormalizeBody(msg.Body))
	for _, a := range msg.Attachments {
		fmt.Fprintf(n.out, "\n(Attachment: %s, %s, %d bytes)\n", a.Name, a.ContentType, len(a.Data))
	}
	fmt.Fprintln(n.out)
	return nil
}
