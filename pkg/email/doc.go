// Package email provides a provider-agnostic interface for sending transactional emails.
//
// # Architecture
//
// The package is built around the EmailSender interface so the mail queue can
// deliver through any provider without changes. Implementations:
//   - Postmark client for production delivery with open/link tracking
//   - SMTP sender relaying through a submission server, with optional DKIM signing
//   - DevSender for local development (saves emails to disk)
//
// All implementations validate SendEmailParams before sending. WithTimeout wraps
// any sender with a per-send deadline; NewSender picks the provider from Config
// and applies Config.SendTimeout.
//
// # Usage
//
//	var cfg email.Config
//	if err := config.Load(&cfg); err != nil {
//	    return err
//	}
//
//	sender, err := email.NewSender(cfg)
//	if err != nil {
//	    return err
//	}
//
//	err = sender.SendEmail(ctx, email.SendEmailParams{
//	    SendTo:   "user@example.com",
//	    Subject:  "Welcome!",
//	    BodyHTML: html,
//	    BodyText: text,
//	    Tag:      "welcome",
//	})
//
// # Error Handling
//
// Sentinel errors classify failures and can be checked with errors.Is:
//   - ErrInvalidConfig: provider configuration is incomplete
//   - ErrInvalidParams: the message itself is invalid
//   - ErrFailedToSendEmail: the provider rejected or could not accept the message
//   - ErrSendTimeout: the provider did not answer within the send timeout
//   - ErrUnknownProvider: Config.Provider names no known provider
package email
