package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Message is an outgoing account email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers account emails.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// OutboxMailer writes each message as an RFC 5322 .eml file into a
// directory. A local MTA or a human can pick them up from there.
type OutboxMailer struct {
	dir  string
	from string
}

// NewOutboxMailer creates a mailer writing into dir.
func NewOutboxMailer(dir, from string) *OutboxMailer {
	return &OutboxMailer{dir: dir, from: from}
}

// Send composes msg and stores it in the outbox.
func (m *OutboxMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return fmt.Errorf("creating outbox %s: %w", m.dir, err)
	}

	data, err := composeMessage(m.from, msg, time.Now())
	if err != nil {
		return err
	}

	name := fmt.Sprintf("%s-%s.eml", time.Now().UTC().Format("20060102T150405"), uuid.NewString())
	path := filepath.Join(m.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// composeMessage renders a single-part plain text email.
func composeMessage(from string, msg Message, date time.Time) ([]byte, error) {
	var h mail.Header
	h.SetDate(date)
	h.SetAddressList("From", []*mail.Address{{Name: "FocusFlow", Address: from}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("generating message id: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message writer: %w", err)
	}
	if _, err := io.WriteString(w, msg.Body); err != nil {
		return nil, fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}
