// Package mail provides SMTP-backed implementations of the mailer domain services.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/pkg/errors"

	"passport/config"
	"passport/internal/domain/service"
)

// sendTimeout bounds the whole SMTP exchange so a hung server cannot pin the
// dispatching goroutine.
const sendTimeout = 30 * time.Second

// smtpMailer delivers HTML mail over SMTP with PLAIN auth.
type smtpMailer struct {
	addr     string
	from     string
	fromName string
	auth     smtp.Auth
	send     func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer is the constructor for smtpMailer.
func NewSMTPMailer(cfg *config.Config) (service.Mailer, error) {
	if cfg.Mail == nil || cfg.Mail.SMTPServer == "" || cfg.Mail.Port == 0 {
		return nil, errors.New("mail server and port must be provided")
	}
	if cfg.Mail.From == "" {
		return nil, errors.New("mail sender address must be provided")
	}

	var auth smtp.Auth
	if cfg.Mail.Username != "" {
		auth = smtp.PlainAuth("", cfg.Mail.Username, cfg.Mail.Password, cfg.Mail.SMTPServer)
	}

	return &smtpMailer{
		addr:     fmt.Sprintf("%s:%d", cfg.Mail.SMTPServer, cfg.Mail.Port),
		from:     cfg.Mail.From,
		fromName: cfg.Mail.FromName,
		auth:     auth,
		send:     sendMail,
	}, nil
}

// sendMail submits a message like smtp.SendMail, but with a dial timeout and
// a connection deadline covering the whole exchange.
func sendMail(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	conn, err := net.DialTimeout("tcp", addr, sendTimeout)
	if err != nil {
		return errors.Wrap(err, "dial smtp server")
	}
	if err := conn.SetDeadline(time.Now().Add(sendTimeout)); err != nil {
		conn.Close()

		return errors.Wrap(err, "set smtp deadline")
	}

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		conn.Close()

		return errors.Wrap(err, "split smtp address")
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()

		return errors.Wrap(err, "create smtp client")
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return errors.Wrap(err, "start tls")
		}
	}
	if auth != nil {
		if ok, _ := client.Extension("AUTH"); ok {
			if err := client.Auth(auth); err != nil {
				return errors.Wrap(err, "authenticate")
			}
		}
	}

	if err := client.Mail(from); err != nil {
		return errors.Wrap(err, "set sender")
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "set recipient %s", rcpt)
		}
	}

	writer, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "open data stream")
	}
	if _, err := writer.Write(msg); err != nil {
		return errors.Wrap(err, "write message")
	}
	if err := writer.Close(); err != nil {
		return errors.Wrap(err, "close data stream")
	}

	return client.Quit()
}

// Send delivers an HTML body to the recipient address.
func (m *smtpMailer) Send(ctx context.Context, recipientName, recipientEmail, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, "send mail")
	}

	msg := fmt.Sprintf(
		"From: %s <%s>\r\n"+
			"To: %s <%s>\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
			"\r\n%s",
		m.fromName, m.from, recipientName, recipientEmail, subject, body,
	)

	if err := m.send(m.addr, m.auth, m.from, []string{recipientEmail}, []byte(msg)); err != nil {
		return errors.Wrapf(err, "send mail to %s", recipientEmail)
	}

	return nil
}
