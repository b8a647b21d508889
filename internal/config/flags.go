// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

package config

import (
	"github.com/knadh/koanf/providers/posflag"
	"github.com/spf13/pflag"
)

// Flag names registered by RegisterFlags.
const (
	FlagWebAddr           = "listen"
	FlagObservabilityAddr = "metrics-listen"
	FlagLogFormat         = "log-format"
	FlagLogLevel          = "log-level"
	FlagRedisAddr         = "redis-addr"
	FlagCookieSecure      = "cookie-secure"
	FlagOffloadWorkers    = "offload-workers"
	FlagAutoMigrate       = "auto-migrate"
)

// flagKeys maps flag names to configuration keys. Flags not listed here
// are ignored by Load. Secrets have no flags so they never appear in a
// process listing.
var flagKeys = map[string]string{
	FlagWebAddr:           "web.addr",
	FlagObservabilityAddr: "observability.addr",
	FlagLogFormat:         "log.format",
	FlagLogLevel:          "log.level",
	FlagRedisAddr:         "redis.addr",
	FlagCookieSecure:      "session.secure",
	FlagOffloadWorkers:    "offload.workers",
	FlagAutoMigrate:       "database.auto_migrate",
}

// RegisterFlags adds the server flags to fs with defaults taken from
// Default.
func RegisterFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagWebAddr, def.Web.Addr, "login HTTP listen address")
	fs.String(FlagObservabilityAddr, def.Observability.Addr, "metrics/health listen address (empty = disabled)")
	fs.String(FlagLogFormat, def.Log.Format, "log format (json or text)")
	fs.String(FlagLogLevel, def.Log.Level, "log level (debug, info, warn, error)")
	fs.String(FlagRedisAddr, def.Redis.Addr, "redis address for sessions (empty = in-memory)")
	fs.Bool(FlagCookieSecure, def.Session.Secure, "mark session cookies Secure")
	fs.Int(FlagOffloadWorkers, def.Offload.Workers, "hashing workers (0 = GOMAXPROCS)")
	fs.Bool(FlagAutoMigrate, def.Database.AutoMigrate, "apply pending migrations on startup")
}

// RegisterLogFlags adds only the logging flags, for commands that do not
// serve.
func RegisterLogFlags(fs *pflag.FlagSet) {
	def := Default()
	fs.String(FlagLogFormat, def.Log.Format, "log format (json or text)")
	fs.String(FlagLogLevel, def.Log.Level, "log level (debug, info, warn, error)")
}

func flagMapper(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, posflag.FlagVal(fs, f)
	}
}
