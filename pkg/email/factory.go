package email

import (
	"fmt"
	"strings"
)

// NewSender builds the EmailSender selected by cfg.Provider and bounds
// every send by cfg.SendTimeout.
func NewSender(cfg Config) (EmailSender, error) {
	var (
		sender EmailSender
		err    error
	)

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderPostmark:
		sender, err = NewPostmarkClient(cfg)
	case ProviderSMTP:
		sender, err = NewSMTPSender(cfg)
	case ProviderDev, "":
		sender = NewDevSender(cfg.DevOutputDir)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	return WithTimeout(sender, cfg.SendTimeout), nil
}
