// Package notify delivers verification codes to users.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"text/template"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
)

var codeMail = template.Must(template.New("code").Parse(
	"From: {{.From}}\r\n" +
		"To: {{.To}}\r\n" +
		"Subject: Your verification code\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		"Your verification code is {{.Code}}.\r\n" +
		"It expires in {{.TTLMinutes}} minutes.\r\n"))

// DefaultSendTimeout bounds one delivery when no other timeout is set.
const DefaultSendTimeout = 10 * time.Second

// SendMailFunc is smtp.SendMail with a context. The context carries the
// delivery deadline.
type SendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPNotifier sends codes as plain-text mail.
type SMTPNotifier struct {
	addr       string
	auth       smtp.Auth
	from       string
	ttlMinutes int
	timeout    time.Duration
	send       SendMailFunc
	log        logging.Logger
}

// NewSMTPNotifier uses PLAIN auth when user is set.
func NewSMTPNotifier(host string, port int, user, password, from string, ttlMinutes int, log logging.Logger) *SMTPNotifier {
	var auth smtp.Auth
	if user != "" {
		auth = smtp.PlainAuth("", user, password, host)
	}
	return &SMTPNotifier{
		addr:       net.JoinHostPort(host, strconv.Itoa(port)),
		auth:       auth,
		from:       from,
		ttlMinutes: ttlMinutes,
		timeout:    DefaultSendTimeout,
		send:       sendMail,
		log:        log.With("module", "notify"),
	}
}

// WithSender replaces the transport, for tests.
func (n *SMTPNotifier) WithSender(send SendMailFunc) *SMTPNotifier {
	n.send = send
	return n
}

// WithTimeout caps each delivery. Non-positive values are ignored.
func (n *SMTPNotifier) WithTimeout(d time.Duration) *SMTPNotifier {
	if d > 0 {
		n.timeout = d
	}
	return n
}

func (n *SMTPNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg bytes.Buffer
	err := codeMail.Execute(&msg, map[string]any{
		"From":       n.from,
		"To":         email,
		"Code":       code,
		"TTLMinutes": n.ttlMinutes,
	})
	if err != nil {
		return fmt.Errorf("render mail: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.send(ctx, n.addr, n.auth, n.from, []string{email}, msg.Bytes()); err != nil {
		return fmt.Errorf("smtp send to %s: %w", n.addr, err)
	}

	n.log.Debug(ctx, "verification mail sent", "to", email)
	return nil
}

// sendMail follows smtp.SendMail, but dials with ctx and drops the
// connection once ctx is done, so a stalled server cannot hold the caller.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return ctxErr(ctx, err)
	}
	defer c.Close()

	if err := deliver(c, host, a, from, to, msg); err != nil {
		return ctxErr(ctx, err)
	}
	return nil
}

func deliver(c *smtp.Client, host string, a smtp.Auth, from string, to []string, msg []byte) error {
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return fmt.Errorf("server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// ctxErr reports the context error in place of the I/O error it caused.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return fmt.Errorf("%w: %v", cerr, err)
	}
	return err
}

// LogNotifier stands in for mail when SMTP is not configured. It records
// that a code was issued and, only when revealCodes is set, the code itself.
type LogNotifier struct {
	log         logging.Logger
	revealCodes bool
}

// NewLogNotifier keeps codes out of the log unless revealCodes is true.
func NewLogNotifier(log logging.Logger, revealCodes bool) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify"), revealCodes: revealCodes}
}

func (n *LogNotifier) SendVerificationCode(ctx context.Context, email, code string) error {
	if n.revealCodes {
		n.log.Warn(ctx, "SMTP not configured, verification code not mailed", "to", email, "code", code)
		return nil
	}
	n.log.Warn(ctx, "SMTP not configured, verification code not mailed", "to", email)
	return nil
}
