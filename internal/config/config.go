// Package config 负责读取并合并服务配置（环境变量为主），避免在业务代码里散落解析逻辑。
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

type Config struct {
	Env      string         `yaml:"env"`
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Security SecurityConfig `yaml:"security"`
	Google   GoogleConfig   `yaml:"google"`
	Frontend FrontendConfig `yaml:"frontend"`
}

type ServerConfig struct {
	Addr          string `yaml:"addr"`
	PublicBaseURL string `yaml:"public_base_url"`

	// HTTP 连接硬化：这些参数会直接映射到 net/http 的 http.Server。
	ReadHeaderTimeoutSeconds int `yaml:"read_header_timeout_seconds"`
	ReadTimeoutSeconds       int `yaml:"read_timeout_seconds"`
	IdleTimeoutSeconds       int `yaml:"idle_timeout_seconds"`
	MaxHeaderBytes           int `yaml:"max_header_bytes"`

	// 请求体上限（表单与 JSON API 均为小体积请求）。
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

type DBConfig struct {
	// Driver 支持 mysql/sqlite；为空时会根据 dsn 自动推断。
	// - 当 dsn 非空且 driver 为空：推断为 mysql
	// - 其他情况默认 sqlite
	Driver string `yaml:"driver"`
	// DSN 仅用于 MySQL（示例：user:pass@tcp(127.0.0.1:3306)/catalogd?parseTime=true&charset=utf8mb4）
	DSN string `yaml:"dsn"`
	// SQLitePath 是 SQLite 数据库文件路径（可包含 DSN query，如 ?_busy_timeout=30000）。
	SQLitePath string `yaml:"sqlite_path"`
}

type SecurityConfig struct {
	DisableSecureCookies bool `yaml:"disable_secure_cookies"`

	// SessionSecret 为空时启动期随机生成（重启会使既有会话失效）。
	SessionSecret string `yaml:"session_secret"`
}

type GoogleConfig struct {
	// ClientID 是 Google OAuth web client id；登录 token 的 aud 必须与之相等。
	ClientID string `yaml:"client_id"`
	// TokeninfoURL 用于远端校验 id_token，默认指向 Google 官方端点。
	TokeninfoURL string `yaml:"tokeninfo_url"`
	// AllowedIssuers 是受信 iss 白名单：同一 host 的裸域与带 scheme 两种写法。
	AllowedIssuers []string `yaml:"allowed_issuers"`

	VerifyTimeoutSeconds int `yaml:"verify_timeout_seconds"`
}

type FrontendConfig struct {
	DistDir string `yaml:"dist_dir"`
}

const (
	DefaultTokeninfoURL = "https://oauth2.googleapis.com/tokeninfo"

	GoogleIssuerBare   = "accounts.google.com"
	GoogleIssuerScheme = "https://accounts.google.com"
)

// LoadFromEnv 仅从环境变量加载配置（不读取任何配置文件）。
func LoadFromEnv() (Config, error) {
	cfg := defaultConfig()
	applyEnvOverrides(&cfg)
	return normalizeAndValidate(cfg)
}

func defaultConfig() Config {
	return Config{
		Env: "dev",
		Server: ServerConfig{
			Addr: ":8080",

			ReadHeaderTimeoutSeconds: 5,
			ReadTimeoutSeconds:       30,
			IdleTimeoutSeconds:       120,
			MaxHeaderBytes:           1048576,

			MaxBodyBytes: 1 << 20, // 1MB
		},
		DB: DBConfig{
			SQLitePath: "./data/catalogd.db?_busy_timeout=30000",
		},
		Google: GoogleConfig{
			TokeninfoURL:         DefaultTokeninfoURL,
			AllowedIssuers:       []string{GoogleIssuerBare, GoogleIssuerScheme},
			VerifyTimeoutSeconds: 10,
		},
		Frontend: FrontendConfig{
			DistDir: "./web/dist",
		},
	}
}

func normalizeAndValidate(cfg Config) (Config, error) {
	publicBaseURL, err := NormalizeHTTPBaseURL(cfg.Server.PublicBaseURL, "server.public_base_url")
	if err != nil {
		return Config{}, err
	}
	cfg.Server.PublicBaseURL = publicBaseURL
	if cfg.Server.Addr == "" {
		return Config{}, errors.New("server.addr 不能为空")
	}

	cfg.DB.Driver = strings.ToLower(strings.TrimSpace(cfg.DB.Driver))
	cfg.DB.DSN = strings.TrimSpace(cfg.DB.DSN)
	cfg.DB.SQLitePath = strings.TrimSpace(cfg.DB.SQLitePath)

	if cfg.DB.Driver == "" {
		if cfg.DB.DSN != "" {
			cfg.DB.Driver = "mysql"
		} else {
			cfg.DB.Driver = "sqlite"
		}
	}

	switch cfg.DB.Driver {
	case "sqlite":
		if cfg.DB.SQLitePath == "" {
			cfg.DB.SQLitePath = "./data/catalogd.db?_busy_timeout=30000"
		}
	case "mysql":
		if cfg.DB.DSN == "" {
			return Config{}, errors.New("db.dsn 不能为空（db.driver=mysql）")
		}
	default:
		return Config{}, fmt.Errorf("db.driver 不支持：%s（仅支持 mysql/sqlite）", cfg.DB.Driver)
	}

	cfg.Google.ClientID = strings.TrimSpace(cfg.Google.ClientID)
	cfg.Google.TokeninfoURL = strings.TrimSpace(cfg.Google.TokeninfoURL)
	if cfg.Google.TokeninfoURL == "" {
		cfg.Google.TokeninfoURL = DefaultTokeninfoURL
	}
	if len(cfg.Google.AllowedIssuers) == 0 {
		cfg.Google.AllowedIssuers = []string{GoogleIssuerBare, GoogleIssuerScheme}
	}
	if cfg.Google.VerifyTimeoutSeconds <= 0 {
		cfg.Google.VerifyTimeoutSeconds = 10
	}

	cfg.Frontend.DistDir = strings.TrimSpace(cfg.Frontend.DistDir)
	if cfg.Frontend.DistDir == "" {
		cfg.Frontend.DistDir = "./web/dist"
	}

	return cfg, nil
}

func NormalizeHTTPBaseURL(raw string, label string) (string, error) {
	v := strings.TrimRight(strings.TrimSpace(raw), "/")
	if v == "" {
		return "", nil
	}
	u, err := url.Parse(v)
	if err != nil {
		if strings.TrimSpace(label) == "" {
			return "", fmt.Errorf("解析 base_url 失败: %w", err)
		}
		return "", fmt.Errorf("解析 %s 失败: %w", label, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%s 仅支持 http/https：%s", label, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%s 缺少 host：%s", label, raw)
	}
	return v, nil
}
