package config

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// Optional-variable readers shared by the config groups.  Each falls back to
// the supplied default when the variable is unset or does not parse.

func envStr(k, d string) string {
    if v := os.Getenv(k); v != "" {
        return v
    }
    return d
}

func envBool(k string, d bool) bool {
    switch strings.ToLower(os.Getenv(k)) {
    case "1", "true", "yes", "on":
        return true
    case "0", "false", "no", "off":
        return false
    }
    return d
}

func envInt(k string, d int) int {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if n, err := strconv.Atoi(v); err == nil {
        return n
    }
    return d
}

func envDur(k string, d time.Duration) time.Duration {
    v := os.Getenv(k)
    if v == "" {
        return d
    }
    if dur, err := time.ParseDuration(v); err == nil {
        return dur
    }
    return d
}

// envList splits a comma separated variable, trimming blanks.  upper
// normalises each element to upper case.
func envList(k, d string, upper bool) []string {
    var out []string
    for _, p := range strings.Split(envStr(k, d), ",") {
        p = strings.TrimSpace(p)
        if upper {
            p = strings.ToUpper(p)
        }
        if p != "" {
            out = append(out, p)
        }
    }
    return out
}
