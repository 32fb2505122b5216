package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// defaultSMTPDeadline applies when the caller's context carries no deadline.
const defaultSMTPDeadline = 2 * time.Minute

type smtpSender struct {
	config Config
	signer *dkimSigner
	now    func() time.Time
}

// NewSMTPSender creates a sender that relays through an SMTP submission server.
// Messages are multipart/alternative (text + HTML) and DKIM-signed when a
// selector and private key are configured.
func NewSMTPSender(cfg Config) (EmailSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("%w: SMTPHost is required", ErrInvalidConfig)
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return nil, fmt.Errorf("%w: SMTPPort must be between 1 and 65535", ErrInvalidConfig)
	}
	if err := validateIdentity(cfg); err != nil {
		return nil, err
	}
	if cfg.SMTPHeloName == "" {
		cfg.SMTPHeloName = "localhost"
	}

	signer, err := newDKIMSigner(cfg)
	if err != nil {
		return nil, err
	}

	return &smtpSender{config: cfg, signer: signer, now: time.Now}, nil
}

// SendEmail implements EmailSender over SMTP.
func (s *smtpSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	msg, err := buildMessage(s.config, params, s.now())
	if err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	if msg, err = s.signer.Sign(msg); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}

	if err := s.deliver(ctx, strings.TrimSpace(params.SendTo), msg); err != nil {
		return errors.Join(ErrFailedToSendEmail, err)
	}
	return nil
}

func (s *smtpSender) deliver(ctx context.Context, to string, msg []byte) error {
	host := s.config.SMTPHost
	addr := net.JoinHostPort(host, strconv.Itoa(s.config.SMTPPort))

	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultSMTPDeadline)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}
	// Unblock any pending read or write as soon as the caller gives up.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	tlsConf := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	if s.config.SMTPImplicitTLS {
		conn = tls.Client(conn, tlsConf)
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("new client: %w", err)
	}
	defer client.Close()

	if err := client.Hello(s.config.SMTPHeloName); err != nil {
		return fmt.Errorf("helo: %w", err)
	}

	if !s.config.SMTPImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConf); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		} else if s.config.SMTPRequireTLS {
			return errors.New("starttls: not offered by server")
		}
	}

	if s.config.SMTPUsername != "" {
		auth := smtp.PlainAuth("", s.config.SMTPUsername, s.config.SMTPPassword, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(s.config.SenderEmail); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data start: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("data write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("data close: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}
	return nil
}

// buildMessage renders a CRLF multipart/alternative message.
func buildMessage(cfg Config, params SendEmailParams, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if params.BodyText != "" {
		if err := writeQPPart(mw, "text/plain; charset=UTF-8", params.BodyText); err != nil {
			return nil, err
		}
	}
	if err := writeQPPart(mw, "text/html; charset=UTF-8", params.BodyHTML); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	domain := "localhost"
	if at := strings.LastIndex(cfg.SenderEmail, "@"); at >= 0 {
		domain = cfg.SenderEmail[at+1:]
	}

	var msg bytes.Buffer
	header := func(key, value string) {
		msg.WriteString(key + ": " + value + "\r\n")
	}
	header("From", cfg.SenderEmail)
	header("To", strings.TrimSpace(params.SendTo))
	if cfg.SupportEmail != "" {
		header("Reply-To", cfg.SupportEmail)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", params.Subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domain+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `multipart/alternative; boundary="`+mw.Boundary()+`"`)
	if params.Tag != "" {
		header("X-Mail-Tag", params.Tag)
	}
	msg.WriteString("\r\n")
	msg.Write(body.Bytes())

	return msg.Bytes(), nil
}

func writeQPPart(mw *multipart.Writer, contentType, content string) error {
	pw, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(pw)
	if _, err := qp.Write([]byte(content)); err != nil {
		return err
	}
	return qp.Close()
}
