package config // package config loads application configuration from environment variables

import (
	"log"     // log reports configuration errors before the zap logger exists
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds the values the server cannot start without, plus a few
// optional ones with defaults.  Each field corresponds to an environment
// variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	LogLevel       string // optional zap level override
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	AutoMigrate    bool   // create tables on startup
	JWTSecret      string // secret used to sign planner session tokens
	SessionTTLMin  int    // planner session token time-to-live in minutes
	LocalStorePath string // sqlite file backing drafts, column config and templates
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),                               // environment (dev/test/prod)
		Port:           must("APP_PORT"),                              // port to bind the HTTP server
		LogLevel:       os.Getenv("LOG_LEVEL"),                        // empty keeps the env default
		DBUser:         must("DB_USER"),                               // database user
		DBPass:         os.Getenv("DB_PASS"),                          // database password (empty allowed)
		DBHost:         must("DB_HOST"),                               // database host
		DBPort:         must("DB_PORT"),                               // database port
		DBName:         must("DB_NAME"),                               // database name
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", true),              // run CREATE TABLE IF NOT EXISTS at boot
		JWTSecret:      must("JWT_SECRET"),                            // secret used for signing session tokens
		SessionTTLMin:  mustInt("SESSION_TOKEN_TTL_MIN"),              // TTL for session tokens in minutes
		LocalStorePath: envStr("LOCAL_STORE_PATH", "data/planner.db"), // sqlite file for local keys
	}
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
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
