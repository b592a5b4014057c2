// Package config handles configuration for the locker server: defaults,
// environment (optionally from a .env file), a JSON overlay and
// command-line flags, applied in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/lockerkeeper/internal/common"
	"github.com/dmitrijs2005/lockerkeeper/internal/logging"
	"github.com/dmitrijs2005/lockerkeeper/internal/server/lockers"
)

// Config holds runtime settings for the locker server.
//
// Fields:
//   - EndpointAddrHTTP: bind address of the web server.
//   - AdminUser / AdminHash: the administrator principal; AdminHash is a
//     bcrypt hash (see cmd/hashpw).
//   - Principals: additional username -> bcrypt hash entries that can log in
//     but are not administrators.
//   - CookieName / CookieKey / CookieExpiry: session cookie name, HS256
//     signing key and lifetime.
//   - CookieSecure: mark the cookie Secure; set it behind TLS.
//   - SessionIdleTimeout: sessions not seen for this long are dropped.
//   - LockerCount / Seed: size of each session's table and its seed name.
//   - LoginEvery / LoginBurst: per-session login throttle.
//   - MaxSessions: cap on live sessions; 0 disables it.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	EndpointAddrHTTP   string
	AdminUser          string
	AdminHash          string
	Principals         map[string]string
	CookieName         string
	CookieKey          string
	CookieExpiry       time.Duration
	CookieSecure       bool
	SessionIdleTimeout time.Duration
	LockerCount        int
	Seed               string
	LoginEvery         time.Duration
	LoginBurst         int
	MaxSessions        int
	LogLevel           string
}

// LoadDefaults populates Config with development defaults. Admin
// credentials and the cookie key are left empty; they come from the
// environment.
func (c *Config) LoadDefaults() {
	c.EndpointAddrHTTP = ":8080"
	c.AdminUser = ""
	c.AdminHash = ""
	c.Principals = nil
	c.CookieName = "locker_session"
	c.CookieKey = ""
	c.CookieExpiry = 30 * 24 * time.Hour
	c.CookieSecure = false
	c.SessionIdleTimeout = time.Hour
	c.LockerCount = common.DefaultLockerCount
	c.Seed = lockers.SeedNameEmpty
	c.LoginEvery = 12 * time.Second
	c.LoginBurst = 5
	c.MaxSessions = common.DefaultMaxSessions
	c.LogLevel = "info"
}

// LoadConfig builds a Config from os.Args and the process environment.
func LoadConfig() (*Config, error) {
	return Load(os.Args[1:], os.LookupEnv)
}

// Load applies defaults, then the environment seen through lookup, the JSON
// file named by -c/-config and finally flags from args, then validates.
// Missing admin credentials are allowed; such a server simply has no
// administrator who can log in.
func Load(args []string, lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := loadDotEnv(args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, lookup); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.LockerCount <= 0 {
		errs = append(errs, fmt.Errorf("locker count must be positive, got %d", c.LockerCount))
	}
	if _, err := lockers.SeedByName(c.Seed); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.CookieExpiry <= 0 {
		errs = append(errs, fmt.Errorf("cookie expiry must be positive, got %s", c.CookieExpiry))
	}
	if c.SessionIdleTimeout < 0 || c.LoginEvery < 0 {
		errs = append(errs, errors.New("durations must not be negative"))
	}
	if c.MaxSessions < 0 {
		errs = append(errs, fmt.Errorf("max sessions must not be negative, got %d", c.MaxSessions))
	}
	if c.LoginBurst < 1 {
		errs = append(errs, fmt.Errorf("login burst must be at least 1, got %d", c.LoginBurst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", common.ErrorValidation, errors.Join(errs...))
	}
	return nil
}

// PrincipalTable returns every principal that may log in. The admin entry
// is always present, even with empty values, and wins over a clashing
// entry in Principals.
func (c *Config) PrincipalTable() map[string]string {
	p := make(map[string]string, len(c.Principals)+1)
	for user, hash := range c.Principals {
		p[user] = hash
	}
	p[c.AdminUser] = c.AdminHash
	return p
}
