// Package notify delivers review notifications to add-on authors and reviewers.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/YusovID/addon-reviews/internal/config"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/pkg/logger/sl"
	"gopkg.in/gomail.v2"
)

type Message struct {
	To      []string
	Subject string
	Body    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// NewReviewMessage is sent to the authors of an add-on when someone reviews it.
func NewReviewMessage(siteURL string, addon *domain.Addon, review *domain.Review, authors []domain.User) Message {
	rating := "no rating"
	if review.Rating.Valid {
		rating = fmt.Sprintf("%d out of 5", review.Rating.Int16)
	}

	return Message{
		To:      emails(authors),
		Subject: fmt.Sprintf("Mozilla Add-ons: %s has a new review", addon.Name),
		Body: fmt.Sprintf(`<p>A user has rated your add-on <strong>%s</strong> %s.</p>
<p><a href="%s/addons/%s/reviews/%d/">Read the review</a></p>`,
			html.EscapeString(addon.Name), rating, strings.TrimRight(siteURL, "/"), addon.Slug, review.ID),
	}
}

// NewReplyMessage is sent to the author of a review when a developer replies to it.
func NewReplyMessage(siteURL string, addon *domain.Addon, review *domain.Review, recipient domain.User) Message {
	return Message{
		To:      emails([]domain.User{recipient}),
		Subject: fmt.Sprintf("Mozilla Add-ons: Developer Reply to %s Review", addon.Name),
		Body: fmt.Sprintf(`<p>A developer of <strong>%s</strong> has replied to your review.</p>
<p><a href="%s/addons/%s/reviews/%d/">Read the reply</a></p>`,
			html.EscapeString(addon.Name), strings.TrimRight(siteURL, "/"), addon.Slug, review.ID),
	}
}

func emails(users []domain.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		if u.Email != "" {
			out = append(out, u.Email)
		}
	}

	return out
}

const defaultSendTimeout = 10 * time.Second

// Mailer sends messages over SMTP.
type Mailer struct {
	from    string
	dial    func() (gomail.SendCloser, error)
	timeout time.Duration
	log     *slog.Logger
}

func NewMailer(cfg config.SMTP, log *slog.Logger) *Mailer {
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	return &Mailer{
		from:    cfg.From,
		dial:    d.Dial,
		timeout: timeout,
		log:     log,
	}
}

// Send delivers one message per recipient. It gives up when ctx is done or the
// configured timeout passes; a delivery already in flight is left to finish
// and close its connection in the background.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	const op = "internal.notify.Mailer.Send"

	if len(msg.To) == 0 {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	messages := make([]*gomail.Message, 0, len(msg.To))
	for _, to := range msg.To {
		gm := gomail.NewMessage()
		gm.SetHeader("From", m.from)
		gm.SetHeader("To", to)
		gm.SetHeader("Subject", msg.Subject)
		gm.SetBody("text/html", msg.Body)
		messages = append(messages, gm)
	}

	done := make(chan error, 1)
	go func() {
		done <- m.deliver(op, messages)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (m *Mailer) deliver(op string, messages []*gomail.Message) error {
	sender, err := m.dial()
	if err != nil {
		return fmt.Errorf("%s: failed to dial smtp server: %w", op, err)
	}
	defer func() {
		if err := sender.Close(); err != nil {
			m.log.Warn("failed to close smtp connection", slog.String("op", op), sl.Err(err))
		}
	}()

	if err := gomail.Send(sender, messages...); err != nil {
		return fmt.Errorf("%s: failed to send: %w", op, err)
	}

	return nil
}

// LogNotifier writes messages to the log instead of delivering them.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info("notification",
		slog.Any("to", msg.To),
		slog.String("subject", msg.Subject),
	)

	return nil
}

// New picks the SMTP mailer when it is enabled in config and the log notifier otherwise.
func New(cfg config.SMTP, log *slog.Logger) Notifier {
	if cfg.Enabled {
		return NewMailer(cfg, log)
	}

	return NewLogNotifier(log)
}
