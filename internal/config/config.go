package config // package config loads application configuration from environment variables

import (
	"log"      // log is used to report configuration errors and halt execution
	"os"       // os provides access to environment variables
	"strconv"  // strconv converts strings to other types
	"time"     // time provides duration types for timeouts
)

// Config holds all runtime configuration values. Each field corresponds
// to an environment variable. The types reflect how the values are used
// in the application: strings for identifiers and secrets, ints and
// durations for limits and timeouts.
type Config struct {
	Env                  string        // application environment (e.g. "dev", "prod")
	Port                 string        // HTTP port to listen on
	DBUser               string        // database username
	DBPass               string        // database password (optional)
	DBHost               string        // database host address
	DBPort               string        // database port number
	DBName               string        // database name
	SessionSecret        string        // secret used to sign checkout session tokens
	SessionTTLMin        int           // checkout session time-to-live in minutes
	ProviderBaseURL      string        // base URL of the upstream inventory API
	ProviderClientID     string        // OAuth client id for the inventory API
	ProviderClientSecret string        // OAuth client secret for the inventory API
	ReputationBaseURL    string        // base URL of the reputation service (empty disables enrichment)
	PriceBatchSize       int           // identifiers per pricing batch
	SearchTimeout        time.Duration // hard budget for one search request
}

// Load reads configuration values from environment variables and returns
// a Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message. Tunables fall back
// to sensible defaults when unset.
func Load() Config {
	return Config{
		Env:                  must("APP_ENV"),                  // environment (dev/test/prod)
		Port:                 must("APP_PORT"),                 // port to bind the HTTP server
		DBUser:               must("DB_USER"),                  // database user
		DBPass:               os.Getenv("DB_PASS"),             // database password (empty allowed)
		DBHost:               must("DB_HOST"),                  // database host
		DBPort:               must("DB_PORT"),                  // database port
		DBName:               must("DB_NAME"),                  // database name
		SessionSecret:        must("SESSION_SECRET"),           // secret for signing session tokens
		SessionTTLMin:        mustInt("SESSION_TTL_MIN"),       // checkout session TTL in minutes
		ProviderBaseURL:      must("PROVIDER_BASE_URL"),        // inventory API base URL
		ProviderClientID:     must("PROVIDER_CLIENT_ID"),       // inventory API client id
		ProviderClientSecret: must("PROVIDER_CLIENT_SECRET"),   // inventory API client secret
		ReputationBaseURL:    os.Getenv("REPUTATION_BASE_URL"), // reputation service (optional)
		PriceBatchSize:       envInt("PRICE_BATCH_SIZE", 50),   // ids per pricing batch
		SearchTimeout:        envDur("SEARCH_TIMEOUT", 30*time.Second), // per-search budget
	}
}

// must retrieves the value of a required environment variable. If the
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
