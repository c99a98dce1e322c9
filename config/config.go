// Package config exposes the runtime settings of the ouvidoria server.
// Values come from the process environment, optionally seeded from a .env file.
package config

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

const defaultInstitutionalDomain = "@enova.educacao.ba.gov.br"

// LoadEnv reads the given .env files (".env" when none) into the process
// environment. Variables already set are left untouched and a missing file is
// not an error.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("OUVIDORIA_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("OUVIDORIA_DEBUG") == "true"
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("OUVIDORIA_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}

func GetListen() string {
	return os.Getenv("OUVIDORIA_LISTEN")
}

// GetPort returns the HTTP port, 5000 unless PORT is a valid port number.
func GetPort() int {
	port, err := strconv.Atoi(os.Getenv("PORT"))
	if err != nil || port <= 0 || port > 65535 {
		return 5000
	}
	return port
}

// GetSessionSecret returns the key used to sign the session cookie.
func GetSessionSecret() []byte {
	secret := os.Getenv("SECRET_KEY")
	if secret == "" {
		secret = "dev-secret-change-me"
	}
	return []byte(secret)
}

// GetSessionMaxAge returns the session lifetime in minutes. Zero means
// sessions never expire.
func GetSessionMaxAge() int {
	return getenvInt("SESSION_MAX_AGE", 0)
}

// GetSessionCacheTTL returns how long a resolved session stays cached.
// Zero disables the cache.
func GetSessionCacheTTL() time.Duration {
	ttl := getenvDuration("SESSION_CACHE_TTL", time.Minute)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// GetAdminCredentials returns the configured administrator pair. Either value
// may be empty, in which case administrator login is disabled.
func GetAdminCredentials() (string, string) {
	return os.Getenv("ADMIN_USER"), os.Getenv("ADMIN_PASS")
}

func GetAdminTotpSecret() string {
	return strings.TrimSpace(os.Getenv("ADMIN_TOTP_SECRET"))
}

const defaultTimeLocation = "America/Bahia"

// GetTimeLocation returns the zone timestamps are displayed and scheduled in,
// taken from TIME_LOCATION. An unknown zone yields the default one together
// with the lookup error.
func GetTimeLocation() (*time.Location, error) {
	zone := strings.TrimSpace(os.Getenv("TIME_LOCATION"))
	if zone == "" {
		zone = defaultTimeLocation
	}
	loc, err := time.LoadLocation(zone)
	if err == nil {
		return loc, nil
	}
	if def, defErr := time.LoadLocation(defaultTimeLocation); defErr == nil {
		return def, err
	}
	return time.UTC, err
}

// GetWebDomain returns the host name requests must carry. Empty accepts any
// host.
func GetWebDomain() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv("OUVIDORIA_DOMAIN")))
}

// GetInstitutionalDomain returns the e-mail suffix accepted by the
// institutional registration path, always starting with "@".
func GetInstitutionalDomain() string {
	domain := strings.ToLower(strings.TrimSpace(os.Getenv("INSTITUTIONAL_DOMAIN")))
	if domain == "" {
		return defaultInstitutionalDomain
	}
	if !strings.HasPrefix(domain, "@") {
		domain = "@" + domain
	}
	return domain
}

func getenvInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return v
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// getenvDuration accepts Go duration syntax in key, or a plain number of
// seconds in key+"_SECONDS".
func getenvDuration(key string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	if v := strings.TrimSpace(os.Getenv(key + "_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
