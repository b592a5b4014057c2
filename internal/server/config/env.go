package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/lockerkeeper/internal/flagx"
)

// LookupFunc has the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

const defaultEnvFile = ".env"

// loadDotEnv copies variables from a dotenv file into the process
// environment without overriding variables that are already set. The file
// is named by -env-file; without the flag ./.env is used when it exists.
func loadDotEnv(args []string) error {
	path := flagx.EnvFileFlag(args)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %s: %w", path, err)
}

// parseEnv overlays environment variables onto config.
//
// Supported variables:
//
//	HTTP_ADDR             web server bind address
//	ADMIN_USER            administrator username
//	ADMIN_HASH            administrator bcrypt hash
//	COOKIE_NAME           session cookie name
//	COOKIE_KEY            session cookie signing key
//	COOKIE_EXPIRY         cookie lifetime, Go duration ("720h")
//	COOKIE_SECURE         true to send the cookie over HTTPS only
//	SESSION_IDLE_TIMEOUT  idle session lifetime, Go duration ("1h")
//	LOCKER_COUNT          lockers per session table
//	LOCKER_SEED           seed name: empty or demo
//	MAX_SESSIONS          cap on live sessions, 0 for none
//	LOG_LEVEL             debug, info, warn or error
//
// A variable that is set, even to an empty string, replaces the current
// value, so ADMIN_USER="" configures an empty admin name.
func parseEnv(config *Config, lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	str("HTTP_ADDR", &config.EndpointAddrHTTP)
	str("ADMIN_USER", &config.AdminUser)
	str("ADMIN_HASH", &config.AdminHash)
	str("COOKIE_NAME", &config.CookieName)
	str("COOKIE_KEY", &config.CookieKey)
	str("LOCKER_SEED", &config.Seed)
	str("LOG_LEVEL", &config.LogLevel)

	if err := envDuration(lookup, "COOKIE_EXPIRY", &config.CookieExpiry); err != nil {
		return err
	}
	if err := envDuration(lookup, "SESSION_IDLE_TIMEOUT", &config.SessionIdleTimeout); err != nil {
		return err
	}

	if v, ok := lookup("COOKIE_SECURE"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		config.CookieSecure = b
	}

	if err := envInt(lookup, "LOCKER_COUNT", &config.LockerCount); err != nil {
		return err
	}
	if err := envInt(lookup, "MAX_SESSIONS", &config.MaxSessions); err != nil {
		return err
	}

	return nil
}

func envInt(lookup LookupFunc, key string, dst *int) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envDuration(lookup LookupFunc, key string, dst *time.Duration) error {
	v, ok := lookup(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
