package api

import "time"

// Config holds the HTTP API settings.
type Config struct {
	TriggerToken string        `env:"TRIGGER_TOKEN,required"`               // bearer token for /v1 routes
	ReadyTimeout time.Duration `env:"HTTP_READY_TIMEOUT" envDefault:"3s"`   // bound for readiness checks
	MaxBodyBytes int64         `env:"HTTP_MAX_BODY_BYTES" envDefault:"1048576"`
}
