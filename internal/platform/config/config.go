package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures process-level configuration for the governance engine.
type Server struct {
	Addr string

	// ClassificationFile is the static tool classification registry
	// loaded at process start.
	ClassificationFile string

	// PrincipalsFile feeds the static principal source when no live IAM
	// integration is configured.
	PrincipalsFile string

	// Environments are the environments the catalog aggregator queries.
	Environments []string

	// InactivityThresholdDays drives catalog inactivity flagging.
	InactivityThresholdDays int

	// RevocationSLA bounds emergency revocation propagation.
	RevocationSLA time.Duration

	// PostgresDSN enables durable stores when set; empty runs in-memory.
	PostgresDSN string

	// RedisAddr enables the shared revocation blocklist when set.
	RedisAddr string
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CUSTOS_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	classificationFile := os.Getenv("CUSTOS_CLASSIFICATION_FILE")
	if classificationFile == "" {
		classificationFile = "classifications.yaml"
	}

	principalsFile := os.Getenv("CUSTOS_PRINCIPALS_FILE")
	if principalsFile == "" {
		principalsFile = "principals.yaml"
	}

	environments := []string{"production"}
	if v := os.Getenv("CUSTOS_ENVIRONMENTS"); v != "" {
		environments = environments[:0]
		for _, env := range strings.Split(v, ",") {
			if env = strings.TrimSpace(env); env != "" {
				environments = append(environments, env)
			}
		}
	}

	inactivityDays := intFromEnv("CUSTOS_INACTIVITY_DAYS", 90)

	sla := 5 * time.Minute
	if v := os.Getenv("CUSTOS_REVOCATION_SLA"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			sla = d
		}
	}

	return Server{
		Addr:                    addr,
		ClassificationFile:      classificationFile,
		PrincipalsFile:          principalsFile,
		Environments:            environments,
		InactivityThresholdDays: inactivityDays,
		RevocationSLA:           sla,
		PostgresDSN:             os.Getenv("CUSTOS_POSTGRES_DSN"),
		RedisAddr:               os.Getenv("CUSTOS_REDIS_ADDR"),
	}
}

func intFromEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
