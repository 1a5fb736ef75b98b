// Package config loads application configuration from environment
// variables.  Required values are enforced with must()/mustInt() and
// missing ones abort startup with a fatal log message.
package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.
type Config struct {
	Env            string        // application environment (e.g. "dev", "prod")
	Port           string        // HTTP port to listen on
	DBUser         string        // database username
	DBPass         string        // database password (optional)
	DBHost         string        // database host address
	DBPort         string        // database port number
	DBName         string        // database name
	JWTSecret      string        // secret used to sign JWTs
	AccessTTLMin   int           // access token time-to-live in minutes
	RefreshTTLDays int           // refresh token time-to-live in days
	BcryptCost     int           // bcrypt cost for password hashing
	SessionTTL     time.Duration // idle TTL of in-progress booking sessions
	PaymentTimeout time.Duration // ceiling on a single payment attempt
	PaymentDriver  string        // "chapa" or "simulator"
	ChapaSecretKey string        // bearer secret for the Chapa API
	ChapaCallback  string        // Chapa payment verification callback URL
	ChapaReturnURL string        // browser return URL after checkout
}

// Load reads configuration values from environment variables and returns
// a Config.  Payment and session settings default to values suitable for
// local development; the simulator driver needs no Chapa credentials.
func Load() Config {
	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		SessionTTL:     envDur("BOOKING_SESSION_TTL", 15*time.Minute),
		PaymentTimeout: envDur("PAYMENT_TIMEOUT", 90*time.Second),
		PaymentDriver:  envStr("PAYMENT_DRIVER", "simulator"),
		ChapaSecretKey: os.Getenv("CHAPA_SECRET_KEY"),
		ChapaCallback:  os.Getenv("CHAPA_CALLBACK_URL"),
		ChapaReturnURL: os.Getenv("CHAPA_RETURN_URL"),
	}
	if cfg.PaymentDriver == "chapa" && cfg.ChapaSecretKey == "" {
		log.Fatal("PAYMENT_DRIVER=chapa requires CHAPA_SECRET_KEY")
	}
	return cfg
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
