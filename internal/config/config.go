package config // package config loads application configuration from environment variables

import (
	"log"      // log is used to report configuration errors and halt execution
	"os"       // os provides access to environment variables
	"strconv"  // strconv converts strings to other types
	"strings"  // strings normalizes enum-like values
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreMySQL  = "mysql"
	StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	StoreDriver    string // "mysql" (default) or "memory"
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // apply embedded migrations on startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	BcryptCost     int    // bcrypt cost for password hashing
	QRCodeBasePath string // public menu URL prefix encoded in QR codes (optional)
	LogMode        string // "prod" for JSON logs, anything else for console logs
	LogLevel       string // zap level name, empty for the mode default
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Database variables
// are only required by the mysql store.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),                             // environment (dev/test/prod)
		Port:           must("APP_PORT"),                            // port to bind the HTTP server
		StoreDriver:    strings.ToLower(getenv("STORE_DRIVER", StoreMySQL)),
		DBPass:         os.Getenv("DB_PASS"),                        // database password (empty allowed)
		DBMigrate:      envBool("DB_MIGRATE", true),
		JWTSecret:      must("JWT_SECRET"),                          // secret used for signing JWTs
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),             // TTL for access tokens in minutes
		BcryptCost:     mustInt("BCRYPT_COST"),                      // bcrypt cost factor
		QRCodeBasePath: strings.TrimRight(os.Getenv("QRCODE_BASE_PATH"), "/"),
		LogMode:        getenv("LOG_MODE", "dev"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
	}
	switch cfg.StoreDriver {
	case StoreMemory:
	case StoreMySQL:
		cfg.DBUser = must("DB_USER")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = must("DB_PORT")
		cfg.DBName = must("DB_NAME")
	default:
		log.Fatalf("invalid STORE_DRIVER: %q", cfg.StoreDriver)
	}
	return cfg
}

// IsProduction reports whether the service runs with APP_ENV=prod|production.
func (c Config) IsProduction() bool {
	e := strings.ToLower(c.Env)
	return e == "prod" || e == "production"
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
