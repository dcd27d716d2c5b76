package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types

    "github.com/iliyamo/train-seat-booking/internal/seating"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env            string // application environment (e.g. "dev", "prod")
    Port           string // HTTP port to listen on
    LogLevel       string // debug | info | warn | error
    DBUser         string // database username
    DBPass         string // database password (optional)
    DBHost         string // database host address
    DBPort         string // database port number
    DBName         string // database name
    JWTSecret      string // secret used to sign JWTs
    AccessTTLMin   int    // access token time-to-live in minutes
    RefreshTTLDays int    // refresh token time-to-live in days
    BcryptCost     int    // bcrypt cost for password hashing
    AdminEmails    []string // signups with these emails get the ADMIN role
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:            must("APP_ENV"),
        Port:           must("APP_PORT"),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        DBUser:         must("DB_USER"),
        DBPass:         os.Getenv("DB_PASS"), // empty allowed
        DBHost:         must("DB_HOST"),
        DBPort:         must("DB_PORT"),
        DBName:         must("DB_NAME"),
        JWTSecret:      must("JWT_SECRET"),
        AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
        RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
        BcryptCost:     mustInt("BCRYPT_COST"),
        AdminEmails:    envList("ADMIN_EMAILS", "", false),
    }
}

// LoadLayout reads the car geometry.  Every value is optional and falls back
// to the 80 seat coach; an inconsistent combination is fatal because no
// request could be answered against it.
func LoadLayout() seating.Layout {
    l := seating.Layout{
        Total:        envInt("SEAT_TOTAL", seating.DefaultLayout.Total),
        FullRowSize:  envInt("SEAT_ROW_SIZE", seating.DefaultLayout.FullRowSize),
        FullRowCount: envInt("SEAT_FULL_ROWS", seating.DefaultLayout.FullRowCount),
        LastRowSize:  envInt("SEAT_LAST_ROW", seating.DefaultLayout.LastRowSize),
    }
    if err := l.Validate(); err != nil {
        log.Fatalf("%v: total=%d row_size=%d full_rows=%d last_row=%d",
            err, l.Total, l.FullRowSize, l.FullRowCount, l.LastRowSize)
    }
    return l
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
