package email_test

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailqueue/pkg/email"
)

// fakeSMTP accepts a single connection and plays a minimal ESMTP dialogue.
// The DATA payload is delivered on the returned channel.
func fakeSMTP(t *testing.T, extensions ...string) (port int, data <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	dataCh := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.SetDeadline(time.Now().Add(5 * time.Second))
		br := bufio.NewReader(conn)
		bw := bufio.NewWriter(conn)
		reply := func(s string) {
			fmt.Fprint(bw, s+"\r\n")
			_ = bw.Flush()
		}

		reply("220 test ESMTP")
		for {
			line, err := br.ReadString('\n')
			if err != nil {
				return
			}
			cmd := strings.ToUpper(strings.TrimRight(line, "\r\n"))
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				if len(extensions) == 0 {
					reply("250 test")
					continue
				}
				fmt.Fprint(bw, "250-test\r\n")
				for i, ext := range extensions {
					if i == len(extensions)-1 {
						reply("250 " + ext)
					} else {
						fmt.Fprint(bw, "250-"+ext+"\r\n")
					}
				}
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				reply("250 OK")
			case cmd == "DATA":
				reply("354 End data with <CR><LF>.<CR><LF>")
				var lines []string
				for {
					l, err := br.ReadString('\n')
					if err != nil {
						return
					}
					if l == ".\r\n" {
						break
					}
					lines = append(lines, l)
				}
				dataCh <- strings.Join(lines, "")
				reply("250 OK queued")
			case cmd == "QUIT":
				reply("221 Bye")
				return
			default:
				reply("502 command not implemented")
			}
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port, dataCh
}

func smtpConfig(port int) email.Config {
	return email.Config{
		Provider:     email.ProviderSMTP,
		SenderEmail:  "sender@example.com",
		SupportEmail: "support@example.com",
		SMTPHost:     "127.0.0.1",
		SMTPPort:     port,
		SMTPHeloName: "mailqueue.test",
	}
}

func TestSMTPSender_SendEmail(t *testing.T) {
	t.Parallel()

	t.Run("delivers multipart message", func(t *testing.T) {
		t.Parallel()

		port, data := fakeSMTP(t)
		sender, err := email.NewSMTPSender(smtpConfig(port))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		err = sender.SendEmail(ctx, email.SendEmailParams{
			SendTo:   "rcpt@example.com",
			Subject:  "Hello",
			BodyHTML: "<p>Hi there</p>",
			BodyText: "Hi there",
			Tag:      "greeting",
		})
		require.NoError(t, err)

		select {
		case body := <-data:
			assert.Contains(t, body, "From: sender@example.com\r\n")
			assert.Contains(t, body, "To: rcpt@example.com\r\n")
			assert.Contains(t, body, "Reply-To: support@example.com\r\n")
			assert.Contains(t, body, "Subject: Hello\r\n")
			assert.Contains(t, body, "X-Mail-Tag: greeting\r\n")
			assert.Contains(t, body, "multipart/alternative")
			assert.Contains(t, body, "text/plain; charset=UTF-8")
			assert.Contains(t, body, "text/html; charset=UTF-8")
			assert.Contains(t, body, "<p>Hi there</p>")
			assert.NotContains(t, body, "DKIM-Signature")
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SMTP data")
		}
	})

	t.Run("signs with DKIM when configured", func(t *testing.T) {
		t.Parallel()

		key, err := rsa.GenerateKey(rand.Reader, 1024)
		require.NoError(t, err)
		pemData := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

		port, data := fakeSMTP(t)
		cfg := smtpConfig(port)
		cfg.DKIMSelector = "mq"
		cfg.DKIMPrivateKey = string(pemData)

		sender, err := email.NewSMTPSender(cfg)
		require.NoError(t, err)

		err = sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "rcpt@example.com",
			Subject:  "Signed",
			BodyHTML: "<p>signed</p>",
		})
		require.NoError(t, err)

		select {
		case body := <-data:
			assert.True(t, strings.HasPrefix(body, "DKIM-Signature:"), "signature header must come first")
			assert.Contains(t, body, "d=example.com")
			assert.Contains(t, body, "s=mq")
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for SMTP data")
		}
	})

	t.Run("require TLS without STARTTLS fails", func(t *testing.T) {
		t.Parallel()

		port, _ := fakeSMTP(t)
		cfg := smtpConfig(port)
		cfg.SMTPRequireTLS = true

		sender, err := email.NewSMTPSender(cfg)
		require.NoError(t, err)

		err = sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "rcpt@example.com",
			Subject:  "Hello",
			BodyHTML: "<p>x</p>",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "starttls")
	})

	t.Run("dial error", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		port := ln.Addr().(*net.TCPAddr).Port
		require.NoError(t, ln.Close())

		sender, err := email.NewSMTPSender(smtpConfig(port))
		require.NoError(t, err)

		err = sender.SendEmail(context.Background(), email.SendEmailParams{
			SendTo:   "rcpt@example.com",
			Subject:  "Hello",
			BodyHTML: "<p>x</p>",
		})
		assert.ErrorIs(t, err, email.ErrFailedToSendEmail)
		assert.Contains(t, err.Error(), "dial")
	})

	t.Run("invalid params never connect", func(t *testing.T) {
		t.Parallel()

		sender, err := email.NewSMTPSender(smtpConfig(1))
		require.NoError(t, err)

		err = sender.SendEmail(context.Background(), email.SendEmailParams{SendTo: "bad", Subject: "x", BodyHTML: "x"})
		assert.ErrorIs(t, err, email.ErrInvalidParams)
	})
}

func TestNewSMTPSender_Config(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *email.Config)
	}{
		{name: "missing host", mutate: func(c *email.Config) { c.SMTPHost = "" }},
		{name: "bad port", mutate: func(c *email.Config) { c.SMTPPort = 70000 }},
		{name: "missing sender", mutate: func(c *email.Config) { c.SenderEmail = "" }},
		{name: "invalid support", mutate: func(c *email.Config) { c.SupportEmail = "nope" }},
		{name: "dkim selector without key", mutate: func(c *email.Config) { c.DKIMSelector = "mq" }},
		{name: "dkim key without selector", mutate: func(c *email.Config) { c.DKIMPrivateKey = "x" }},
		{name: "dkim garbage key", mutate: func(c *email.Config) { c.DKIMSelector = "mq"; c.DKIMPrivateKey = "not a pem" }},
		{name: "dkim missing key file", mutate: func(c *email.Config) { c.DKIMSelector = "mq"; c.DKIMKeyPath = "/nonexistent/key.pem" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := smtpConfig(587)
			tt.mutate(&cfg)
			_, err := email.NewSMTPSender(cfg)
			assert.ErrorIs(t, err, email.ErrInvalidConfig)
		})
	}
}
