package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/wneessen/go-mail"

	"github.com/iliyamo/theta-web/internal/config"
	"github.com/iliyamo/theta-web/internal/logger"
	"github.com/iliyamo/theta-web/internal/metrics"
	"github.com/iliyamo/theta-web/internal/model"
)

// MailMessage is a single outbound email.
type MailMessage struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers one message.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// SMTPMailer sends mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer returns nil when SMTP is not configured.
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	if !cfg.Enabled() {
		return nil
	}
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Send(ctx context.Context, msg MailMessage) error {
	em := mail.NewMsg()
	if err := em.From(m.cfg.From); err != nil {
		return fmt.Errorf("set from: %w", err)
	}
	if err := em.To(msg.To); err != nil {
		return fmt.Errorf("set to: %w", err)
	}
	if msg.ReplyTo != "" {
		// A bad reply-to only loses convenience, not the message.
		_ = em.ReplyTo(msg.ReplyTo)
	}
	em.Subject(msg.Subject)
	em.SetBodyString(mail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		em.AddAlternativeString(mail.TypeTextPlain, msg.Text)
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.User),
		mail.WithPassword(m.cfg.Pass),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(m.cfg.Timeout),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, em); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// InquiryNotifier emails the operator a summary of each accepted inquiry.
// Delivery is retried a bounded number of times with exponential backoff;
// a final failure is logged and counted but never returned to the
// submitter.
type InquiryNotifier struct {
	mailer   Mailer
	to       string
	baseURL  string
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	policy   *bluemonday.Policy
	log      logger.Logger
	metrics  metrics.Recorder
}

// NewInquiryNotifier wires a notifier.  A nil mailer disables email.
func NewInquiryNotifier(mailer Mailer, cfg config.SMTPConfig, baseURL string, log logger.Logger, rec metrics.Recorder) *InquiryNotifier {
	if log == nil {
		log = logger.NewNop()
	}
	if rec == nil {
		rec = metrics.Nop{}
	}
	if isNilInterface(mailer) {
		mailer = nil
	}
	attempts := cfg.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &InquiryNotifier{
		mailer:   mailer,
		to:       cfg.NotifyTo,
		baseURL:  strings.TrimRight(baseURL, "/"),
		attempts: attempts,
		backoff:  time.Second,
		timeout:  timeout,
		policy:   bluemonday.StrictPolicy(),
		log:      log,
		metrics:  rec,
	}
}

// Enabled reports whether a mailer is configured.
func (n *InquiryNotifier) Enabled() bool { return n != nil && n.mailer != nil }

// Notify sends the summary for in.  Errors are wrapped with the
// NOTIFICATION_FAILED code for logging.
func (n *InquiryNotifier) Notify(ctx context.Context, in model.Inquiry) error {
	if !n.Enabled() {
		return nil
	}
	msg := n.compose(in)

	var lastErr error
	wait := n.backoff
	for attempt := 1; ; attempt++ {
		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		lastErr = n.mailer.Send(sendCtx, msg)
		cancel()
		if lastErr == nil {
			return nil
		}
		n.log.Warn("notification email attempt failed",
			logger.Int("attempt", attempt), logger.Uint64("inquiry_id", in.ID), logger.Error(lastErr))
		if attempt >= n.attempts {
			break
		}
		if err := sleepCtx(ctx, wait); err != nil {
			lastErr = errors.Join(lastErr, err)
			break
		}
		wait *= 2
	}
	n.metrics.RecordNotificationFailure("email")
	return NewError(CodeNotificationFailed, "notification email not delivered", lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func kindLabel(k model.Kind) string {
	if k == model.KindQuote {
		return "Quote Request"
	}
	return "Contact"
}

// compose renders the operator email.  Every submitted value is run through
// the strict policy, which escapes markup, before it is placed in HTML.
func (n *InquiryNotifier) compose(in model.Inquiry) MailMessage {
	esc := n.policy.Sanitize
	label := kindLabel(in.Kind)

	var b strings.Builder
	fmt.Fprintf(&b, "<h2>New %s Submission</h2>\n", label)
	fmt.Fprintf(&b, "<p><strong>Name:</strong> %s</p>\n", esc(in.Name))
	fmt.Fprintf(&b, "<p><strong>Email:</strong> %s</p>\n", esc(in.Email))
	if in.Phone != "" {
		fmt.Fprintf(&b, "<p><strong>Phone:</strong> %s</p>\n", esc(in.Phone))
	}
	fmt.Fprintf(&b, "<p><strong>Client type:</strong> %s</p>\n", esc(string(in.ClientType)))
	if in.OrganizationName != "" {
		fmt.Fprintf(&b, "<p><strong>Organization:</strong> %s</p>\n", esc(in.OrganizationName))
	}
	if in.ProjectType != "" {
		fmt.Fprintf(&b, "<p><strong>Project type:</strong> %s</p>\n", esc(string(in.ProjectType)))
	}
	if in.ProjectLocation != "" {
		fmt.Fprintf(&b, "<p><strong>Project location:</strong> %s</p>\n", esc(in.ProjectLocation))
	}
	b.WriteString("<p><strong>Message:</strong></p>\n")
	fmt.Fprintf(&b, "<p>%s</p>\n", strings.ReplaceAll(esc(in.Message), "\n", "<br>"))
	if len(in.Documents) > 0 {
		links := make([]string, 0, len(in.Documents))
		for _, d := range in.Documents {
			name := d.Filename
			if name == "" {
				name = d.URL
			}
			links = append(links, fmt.Sprintf(`<a href="%s">%s</a>`, esc(n.absolute(d.URL)), esc(name)))
		}
		fmt.Fprintf(&b, "<p><strong>Documents:</strong> %s</p>\n", strings.Join(links, ", "))
	}

	text := fmt.Sprintf("New %s from %s <%s>\n\n%s\n", label, in.Name, in.Email, in.Message)
	return MailMessage{
		To:      n.to,
		ReplyTo: in.Email,
		Subject: fmt.Sprintf("New %s from %s", label, in.Name),
		HTML:    b.String(),
		Text:    text,
	}
}

func (n *InquiryNotifier) absolute(u string) string {
	if strings.HasPrefix(u, "/") {
		return n.baseURL + u
	}
	return u
}
