package email

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/emersion/go-msgauth/dkim"
)

var errNoPrivateKey = errors.New("no private key found in PEM data")

// dkimSigner adds a DKIM-Signature header to outgoing messages.
type dkimSigner struct {
	domain     string
	selector   string
	key        crypto.Signer
	headerKeys []string
}

// newDKIMSigner returns nil when DKIM is not configured.
// The signing domain defaults to the domain of the sender address.
func newDKIMSigner(cfg Config) (*dkimSigner, error) {
	if cfg.DKIMSelector == "" && cfg.DKIMPrivateKey == "" && cfg.DKIMKeyPath == "" {
		return nil, nil
	}
	if cfg.DKIMSelector == "" {
		return nil, fmt.Errorf("%w: SMTP_DKIM_SELECTOR is required when enabling DKIM", ErrInvalidConfig)
	}

	var pemData []byte
	switch {
	case cfg.DKIMPrivateKey != "":
		pemData = []byte(cfg.DKIMPrivateKey)
	case cfg.DKIMKeyPath != "":
		data, err := os.ReadFile(cfg.DKIMKeyPath)
		if err != nil {
			return nil, fmt.Errorf("%w: read DKIM key: %v", ErrInvalidConfig, err)
		}
		pemData = data
	default:
		return nil, fmt.Errorf("%w: provide SMTP_DKIM_KEY_PATH or SMTP_DKIM_PRIVATE_KEY", ErrInvalidConfig)
	}

	key, err := parsePrivateKey(pemData)
	if err != nil {
		return nil, fmt.Errorf("%w: parse DKIM key: %v", ErrInvalidConfig, err)
	}

	domain := strings.ToLower(strings.TrimSpace(cfg.DKIMDomain))
	if domain == "" {
		if at := strings.LastIndex(cfg.SenderEmail, "@"); at >= 0 {
			domain = strings.ToLower(cfg.SenderEmail[at+1:])
		}
	}
	if domain == "" {
		return nil, fmt.Errorf("%w: unable to determine DKIM signing domain", ErrInvalidConfig)
	}

	return &dkimSigner{
		domain:   domain,
		selector: cfg.DKIMSelector,
		key:      key,
		headerKeys: []string{
			"from", "to", "subject", "date",
			"mime-version", "content-type", "message-id",
		},
	}, nil
}

// Sign returns the CRLF message prefixed with a DKIM-Signature header.
func (s *dkimSigner) Sign(message []byte) ([]byte, error) {
	if s == nil {
		return message, nil
	}

	var signed bytes.Buffer
	err := dkim.Sign(&signed, bytes.NewReader(message), &dkim.SignOptions{
		Domain:                 s.domain,
		Selector:               s.selector,
		Signer:                 s.key,
		HeaderCanonicalization: dkim.CanonicalizationRelaxed,
		BodyCanonicalization:   dkim.CanonicalizationRelaxed,
		HeaderKeys:             s.headerKeys,
	})
	if err != nil {
		return nil, fmt.Errorf("dkim: signing failed: %w", err)
	}
	return signed.Bytes(), nil
}

func parsePrivateKey(pemData []byte) (crypto.Signer, error) {
	for {
		block, rest := pem.Decode(pemData)
		if block == nil {
			break
		}
		switch block.Type {
		case "RSA PRIVATE KEY":
			key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			return key, nil
		case "PRIVATE KEY":
			key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, err
			}
			if signer, ok := key.(crypto.Signer); ok {
				return signer, nil
			}
			return nil, errors.New("unsupported private key type in PKCS#8 container")
		}
		pemData = rest
	}
	return nil, errNoPrivateKey
}
