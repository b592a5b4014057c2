package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/lockerkeeper/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
// Supported flags (short forms):
//
//	-a string   web server bind address (e.g. ":8080")
//	-u string   administrator username
//	-p string   administrator bcrypt hash
//	-n string   session cookie name
//	-k string   session cookie signing key
//	-e int      cookie expiry, days
//	-i int      session idle timeout, minutes (0 disables)
//	-l int      lockers per session table
//	-s string   seed name (empty, demo)
//	-v string   log level
//
// Only these flags are looked at; -c/-config and -env-file are consumed by
// the other loaders.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-u", "-p", "-n", "-k", "-e", "-i", "-l", "-s", "-v"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.AdminUser, "u", config.AdminUser, "administrator username")
	fs.StringVar(&config.AdminHash, "p", config.AdminHash, "administrator bcrypt hash")
	fs.StringVar(&config.CookieName, "n", config.CookieName, "session cookie name")
	fs.StringVar(&config.CookieKey, "k", config.CookieKey, "session cookie key")

	cookieExpiryDays := fs.Int("e", int(config.CookieExpiry/(24*time.Hour)), "cookie expiry (in days)")
	idleMinutes := fs.Int("i", int(config.SessionIdleTimeout.Minutes()), "session idle timeout (in minutes)")

	fs.IntVar(&config.LockerCount, "l", config.LockerCount, "number of lockers")
	fs.StringVar(&config.Seed, "s", config.Seed, "locker seed")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only convert durations that were given, so sub-unit values from the
	// environment or JSON survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "e":
			config.CookieExpiry = time.Duration(*cookieExpiryDays) * 24 * time.Hour
		case "i":
			config.SessionIdleTimeout = time.Duration(*idleMinutes) * time.Minute
		}
	})

	return nil
}
