package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"blastfasta/internal/errs"
)

// Env is a namespaced view over environment variables, e.g. NewEnv("BLASTFASTA_").
type Env struct {
	prefix string
	lookup func(string) (string, bool)
}

// NewEnv creates a view over the process environment.
func NewEnv(prefix string) Env { return Env{prefix: prefix, lookup: os.LookupEnv} }

// NewEnvFrom creates a view over a fixed map; handy in tests.
func NewEnvFrom(prefix string, m map[string]string) Env {
	return Env{prefix: prefix, lookup: func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}}
}

// Prefix creates a child view with an additional prefix.
func (e Env) Prefix(p string) Env { return Env{prefix: e.prefix + p, lookup: e.lookup} }

func (e Env) key(k string) string { return e.prefix + k }

// get returns the trimmed value and whether it was set to something non-empty.
func (e Env) get(k string) (string, bool) {
	v, ok := e.lookup(e.key(k))
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

// Apply overlays every variable that is set onto cfg. A malformed value is a
// KindConfig error naming the variable.
func (e Env) Apply(cfg *Config) error {
	e.strVar("DB", &cfg.Database)
	e.strVar("OUT", &cfg.Output)
	e.strVar("ENDPOINT", &cfg.Endpoint)
	e.strVar("EMAIL", &cfg.Email)
	e.strVar("LOG_LEVEL", &cfg.LogLevel)
	e.strVar("LOG_FORMAT", &cfg.LogFormat)

	for _, f := range []struct {
		key string
		dst *int
	}{
		{"QUEUE_CAPACITY", &cfg.QueueCapacity},
		{"MIN_WORKERS", &cfg.MinWorkers},
		{"MAX_WORKERS", &cfg.MaxWorkers},
		{"MAX_POLLS", &cfg.MaxPolls},
	} {
		if err := e.intVar(f.key, f.dst); err != nil {
			return err
		}
	}
	for _, f := range []struct {
		key string
		dst *time.Duration
	}{
		{"IDLE_TIMEOUT", &cfg.IdleTimeout},
		{"DRAIN_TIMEOUT", &cfg.DrainTimeout},
		{"POLL_INTERVAL", &cfg.PollInterval},
	} {
		if err := e.durVar(f.key, f.dst); err != nil {
			return err
		}
	}
	if s, ok := e.get("QUIET"); ok {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return errs.Newf(errs.KindConfig, "%s: invalid bool %q", e.key("QUIET"), s)
		}
		cfg.Quiet = v
	}
	return nil
}

func (e Env) strVar(k string, dst *string) {
	if v, ok := e.get(k); ok {
		*dst = v
	}
}

func (e Env) intVar(k string, dst *int) error {
	s, ok := e.get(k)
	if !ok {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return errs.Newf(errs.KindConfig, "%s: invalid int %q", e.key(k), s)
	}
	*dst = v
	return nil
}

func (e Env) durVar(k string, dst *time.Duration) error {
	s, ok := e.get(k)
	if !ok {
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errs.Newf(errs.KindConfig, "%s: invalid duration %q (e.g., 250ms, 2s, 1h)", e.key(k), s)
	}
	*dst = v
	return nil
}
