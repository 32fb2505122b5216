package email

import "time"

// Provider names accepted by NewSender.
const (
	ProviderPostmark = "postmark"
	ProviderSMTP     = "smtp"
	ProviderDev      = "dev"
)

// Config holds email service configuration.
// Only the settings of the selected Provider are validated, so development
// environments can run without any provider credentials.
type Config struct {
	Provider     string        `env:"EMAIL_PROVIDER" envDefault:"dev"`
	SenderEmail  string        `env:"SENDER_EMAIL,required"`
	SupportEmail string        `env:"SUPPORT_EMAIL,required"`
	SendTimeout  time.Duration `env:"EMAIL_SEND_TIMEOUT" envDefault:"15s"`

	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	PostmarkBaseURL      string `env:"POSTMARK_BASE_URL"` // overrides the API endpoint, e.g. for a local mock

	SMTPHost        string `env:"SMTP_HOST"`
	SMTPPort        int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername    string `env:"SMTP_USERNAME"`
	SMTPPassword    string `env:"SMTP_PASSWORD"`
	SMTPHeloName    string `env:"SMTP_HELO_NAME" envDefault:"localhost"`
	SMTPRequireTLS  bool   `env:"SMTP_REQUIRE_TLS" envDefault:"true"`
	SMTPImplicitTLS bool   `env:"SMTP_IMPLICIT_TLS" envDefault:"false"`

	DKIMSelector   string `env:"SMTP_DKIM_SELECTOR"`
	DKIMDomain     string `env:"SMTP_DKIM_DOMAIN"`
	DKIMPrivateKey string `env:"SMTP_DKIM_PRIVATE_KEY"`
	DKIMKeyPath    string `env:"SMTP_DKIM_KEY_PATH"`

	DevOutputDir string `env:"EMAIL_DEV_DIR" envDefault:"./tmp/emails"`
}
