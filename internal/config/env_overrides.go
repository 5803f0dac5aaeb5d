package config

import (
	"os"
	"strconv"
	"strings"
)

func applyEnvOverrides(cfg *Config) {
	applyCoreEnvOverrides(cfg)
	applyServerEnvOverrides(cfg)
	applySecurityEnvOverrides(cfg)
	applyGoogleEnvOverrides(cfg)
	applyFrontendEnvOverrides(cfg)
}

func applyCoreEnvOverrides(cfg *Config) {
	if v := os.Getenv("CATALOGD_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("CATALOGD_DB_DRIVER"); v != "" {
		cfg.DB.Driver = v
	}
	if v := os.Getenv("CATALOGD_DB_DSN"); v != "" {
		cfg.DB.DSN = v
	}
	if v := os.Getenv("CATALOGD_DB_SQLITE_PATH"); v != "" {
		cfg.DB.SQLitePath = v
	}
}

func applyServerEnvOverrides(cfg *Config) {
	if v := os.Getenv("CATALOGD_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CATALOGD_PUBLIC_BASE_URL"); v != "" {
		cfg.Server.PublicBaseURL = v
	}
	if v := os.Getenv("CATALOGD_SERVER_READ_HEADER_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Server.ReadHeaderTimeoutSeconds = n
		}
	}
	if v := os.Getenv("CATALOGD_SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Server.ReadTimeoutSeconds = n
		}
	}
	if v := os.Getenv("CATALOGD_SERVER_IDLE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Server.IdleTimeoutSeconds = n
		}
	}
	if v := os.Getenv("CATALOGD_SERVER_MAX_HEADER_BYTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Server.MaxHeaderBytes = n
		}
	}
	if v := os.Getenv("CATALOGD_SERVER_MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}
}

func applySecurityEnvOverrides(cfg *Config) {
	if v := os.Getenv("CATALOGD_DISABLE_SECURE_COOKIES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Security.DisableSecureCookies = b
		}
	}
	if v := os.Getenv("CATALOGD_SESSION_SECRET"); v != "" {
		cfg.Security.SessionSecret = v
	}
}

func applyGoogleEnvOverrides(cfg *Config) {
	if v := os.Getenv("CATALOGD_GOOGLE_CLIENT_ID"); v != "" {
		cfg.Google.ClientID = v
	}
	if v := os.Getenv("CATALOGD_GOOGLE_TOKENINFO_URL"); v != "" {
		cfg.Google.TokeninfoURL = v
	}
	if v := os.Getenv("CATALOGD_GOOGLE_ALLOWED_ISSUERS"); v != "" {
		cfg.Google.AllowedIssuers = splitCSV(v)
	}
	if v := os.Getenv("CATALOGD_GOOGLE_VERIFY_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Google.VerifyTimeoutSeconds = n
		}
	}
}

func applyFrontendEnvOverrides(cfg *Config) {
	if v := os.Getenv("CATALOGD_FRONTEND_DIST_DIR"); v != "" {
		cfg.Frontend.DistDir = v
	}
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
