package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env/v6"
)

const (
	MailDeliverySES  = "ses"
	MailDeliveryAMQP = "amqp"
)

type Config struct {
	IsTestMode bool `env:"TEST_MODE" envDefault:"false"`
	Port       int  `env:"PORT" envDefault:"9090"`

	Secret        string `env:"SECRET,required"`
	PostgresqlURL string `env:"POSTGRESQL_URL,required"`
	RedisURL      string `env:"REDIS_URL,required"`
	RabbitmqURL   string `env:"RABBITMQ_URL"`

	BcryptHasherCost        int           `env:"BCRYPT_HASHER_COST" envDefault:"10"`
	ResetTokenValidDuration time.Duration `env:"RESET_TOKEN_VALID_DURATION" envDefault:"6h"`
	ClientTokenLifespan     time.Duration `env:"CLIENT_TOKEN_LIFESPAN" envDefault:"336h"`

	DefaultResetRedirectURL          string   `env:"DEFAULT_PASSWORD_RESET_REDIRECT_URL"`
	RedirectAllowList                []string `env:"REDIRECT_ALLOW_LIST" envSeparator:","`
	CheckCurrentPasswordBeforeUpdate bool     `env:"CHECK_CURRENT_PASSWORD_BEFORE_UPDATE" envDefault:"false"`

	EmailCaseInsensitive     bool `env:"EMAIL_CASE_INSENSITIVE" envDefault:"true"`
	MultipleProviders        bool `env:"MULTIPLE_PROVIDERS" envDefault:"false"`
	Confirmable              bool `env:"CONFIRMABLE" envDefault:"false"`
	CaseInsensitiveCollation bool `env:"STORE_CASE_INSENSITIVE_COLLATION" envDefault:"false"`

	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// MailDelivery selects how reset instructions leave the process:
	// "ses" sends inline, "amqp" queues them for the mailer binary.
	MailDelivery          string `env:"MAIL_DELIVERY" envDefault:"ses"`
	RabbitmqResetExchange string `env:"RABBITMQ_RESET_EXCHANGE" envDefault:""`
	RabbitmqResetQueue    string `env:"RABBITMQ_RESET_QUEUE" envDefault:"password.reset.instructions"`

	AwsRegion             string  `env:"AWS_REGION" envDefault:"eu-west-1"`
	AwsAccessKey          string  `env:"AWS_ACCESS_KEY"`
	AwsSecretKey          string  `env:"AWS_SECRET_KEY"`
	AwsEmailSender        string  `env:"AWS_EMAIL_SENDER"`
	AwsEmailResetTemplate string  `env:"AWS_EMAIL_PASSWORD_RESET_TEMPLATE" envDefault:"password-reset"`
	PasswordEditURL       url.URL `env:"PASSWORD_EDIT_URL" envDefault:"http://localhost:9090/auth/password/edit"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.MailDelivery != MailDeliverySES && cfg.MailDelivery != MailDeliveryAMQP {
		return nil, fmt.Errorf("invalid MAIL_DELIVERY value: %q", cfg.MailDelivery)
	}
	if cfg.MailDelivery == MailDeliveryAMQP && cfg.RabbitmqURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL must be set for AMQP mail delivery")
	}
	return cfg, nil
}
