package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/lockerkeeper/internal/flagx"
	"github.com/dmitrijs2005/lockerkeeper/internal/timex"
)

// JsonConfig is the on-disk shape of the optional config file. Pointer
// fields tell "absent" from "zero", so a file only overrides what it
// mentions. Durations accept "90m" style strings or nanoseconds.
//
// Example:
//
//	{
//	  "endpoint_addr_http": ":8080",
//	  "admin_user": "admin",
//	  "cookie_expiry": "720h",
//	  "seed": "demo",
//	  "principals": {"staff": "$2a$12$..."}
//	}
type JsonConfig struct {
	EndpointAddrHTTP   *string           `json:"endpoint_addr_http"`
	AdminUser          *string           `json:"admin_user"`
	AdminHash          *string           `json:"admin_hash"`
	Principals         map[string]string `json:"principals"`
	CookieName         *string           `json:"cookie_name"`
	CookieKey          *string           `json:"cookie_key"`
	CookieExpiry       *timex.Duration   `json:"cookie_expiry"`
	CookieSecure       *bool             `json:"cookie_secure"`
	SessionIdleTimeout *timex.Duration   `json:"session_idle_timeout"`
	LockerCount        *int              `json:"locker_count"`
	Seed               *string           `json:"seed"`
	LoginEvery         *timex.Duration   `json:"login_every"`
	LoginBurst         *int              `json:"login_burst"`
	MaxSessions        *int              `json:"max_sessions"`
	LogLevel           *string           `json:"log_level"`
}

// parseJson loads the file named by -c or -config, if any, onto config.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFileFlag(args)
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.AdminUser, c.AdminUser)
	setString(&config.AdminHash, c.AdminHash)
	setString(&config.CookieName, c.CookieName)
	setString(&config.CookieKey, c.CookieKey)
	setString(&config.Seed, c.Seed)
	setString(&config.LogLevel, c.LogLevel)

	if c.Principals != nil {
		config.Principals = c.Principals
	}
	if c.CookieExpiry != nil {
		config.CookieExpiry = c.CookieExpiry.Duration
	}
	if c.SessionIdleTimeout != nil {
		config.SessionIdleTimeout = c.SessionIdleTimeout.Duration
	}
	if c.LoginEvery != nil {
		config.LoginEvery = c.LoginEvery.Duration
	}
	if c.CookieSecure != nil {
		config.CookieSecure = *c.CookieSecure
	}
	if c.LockerCount != nil {
		config.LockerCount = *c.LockerCount
	}
	if c.LoginBurst != nil {
		config.LoginBurst = *c.LoginBurst
	}
	if c.MaxSessions != nil {
		config.MaxSessions = *c.MaxSessions
	}

	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
