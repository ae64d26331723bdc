package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	BackendGitHub = "github"
	BackendMemory = "memory"

	OptimizerAnthropic = "anthropic"
	OptimizerLorem     = "lorem"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s
	RequestTimeout  time.Duration // per request, ex: 30s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	// Document store
	DocstoreBackend string        // "github" | "memory"
	GitHubToken     string        // contents:write token, empty => read-only
	GitHubOwner     string        // repository owner
	GitHubRepo      string        // repository name
	GitHubPath      string        // ex: "data/db.json"
	GitHubBranch    string        // ex: "main"
	GitHubAPIURL    string        // ex: "https://api.github.com"
	GitHubTimeout   time.Duration // per GitHub request

	SiteProfileFile string        // optional site.yaml (author byline, optimizer defaults)
	ReloadInterval  time.Duration // interval to reload the document (default: 5m)
	CacheTTL        time.Duration // TTL of the shared document cache in Redis

	// Redis (optional, empty address => single instance mode)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 5s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // Total time to retry connecting (ex: 30s)
	RedisRetryInterval  time.Duration // Initial wait between retries (ex: 2s, grows exponentially)
	RedisWarnThreshold  int           // warn after this many attempts

	// Admin
	AdminUsername string
	AdminPassword string
	SessionSecret string        // HMAC key for session tokens, at least 32 bytes
	SessionTTL    time.Duration // ex: 12h
	SecureCookies bool          // mark the session cookie Secure (disable for plain http dev)

	// Optimizer
	Optimizer       string // "anthropic" | "lorem"
	AnthropicAPIKey string
	AnthropicModel  string // empty => optimizer default

	CORSOrigins  []string // allowed browser origins, empty => CORS disabled
	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict infra endpoints to specific IPs (e.g. "1.2.3.4, 10.0.0.0/8")
	TrustProxy   bool     // true => trust X-Forwarded-For headers (e.g. cloudflared)
}

// Load reads the server configuration from the environment and panics when
// a required variable is missing or the combination is unusable.
func Load() *Config {
	cfg := fromEnv()
	cfg.AdminUsername = requireEnv("READMEHUB_ADMIN_USERNAME")
	cfg.AdminPassword = requireEnv("READMEHUB_ADMIN_PASSWORD")
	cfg.SessionSecret = requireEnv("READMEHUB_SESSION_SECRET")

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		log.Printf("[DEBUG] cfg: %+v\n", cfg.Redacted())
	}

	return cfg
}

// LoadStore reads only what the document store needs. The CLI tools use it
// so they run without admin credentials.
func LoadStore() *Config {
	cfg := fromEnv()
	if err := cfg.ValidateStore(); err != nil {
		panic(fmt.Sprintf("❌ FATAL: %v", err))
	}
	return cfg
}

func fromEnv() *Config {
	return &Config{
		// Server settings
		ListenPort:      getenv("READMEHUB_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("READMEHUB_SHUTDOWN_TIMEOUT", 5*time.Second),
		RequestTimeout:  mustDuration("READMEHUB_REQUEST_TIMEOUT", 30*time.Second),

		// Logging
		LogLevel:  getenv("READMEHUB_LOG_LEVEL", "info"),
		PrettyLog: mustBool("READMEHUB_PRETTY_LOG", true),

		// Document store
		DocstoreBackend: strings.ToLower(getenv("READMEHUB_DOCSTORE_BACKEND", BackendGitHub)),
		GitHubToken:     getenv("GITHUB_TOKEN", ""),
		GitHubOwner:     getenv("READMEHUB_GITHUB_OWNER", ""),
		GitHubRepo:      getenv("READMEHUB_GITHUB_REPO", ""),
		GitHubPath:      getenv("READMEHUB_GITHUB_PATH", "data/db.json"),
		GitHubBranch:    getenv("READMEHUB_GITHUB_BRANCH", "main"),
		GitHubAPIURL:    getenv("READMEHUB_GITHUB_API_URL", "https://api.github.com"),
		GitHubTimeout:   mustDuration("READMEHUB_GITHUB_TIMEOUT", 15*time.Second),

		SiteProfileFile: getenv("READMEHUB_SITE_PROFILE_FILE", ""),
		ReloadInterval:  mustDuration("READMEHUB_RELOAD_INTERVAL", 5*time.Minute),
		CacheTTL:        mustDuration("READMEHUB_CACHE_TTL", 10*time.Minute),

		// Redis settings
		RedisAddr:           getenv("READMEHUB_REDIS_ADDR", ""),
		RedisUser:           getenv("READMEHUB_REDIS_USERNAME", ""),
		RedisPassword:       getenv("READMEHUB_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("READMEHUB_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Admin
		SessionTTL:    mustDuration("READMEHUB_SESSION_TTL", 12*time.Hour),
		SecureCookies: mustBool("READMEHUB_SECURE_COOKIES", true),

		// Optimizer
		Optimizer:       strings.ToLower(getenv("READMEHUB_OPTIMIZER", OptimizerLorem)),
		AnthropicAPIKey: getenv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getenv("READMEHUB_ANTHROPIC_MODEL", ""),

		// Access restrictions
		CORSOrigins:  splitAndTrim(getenv("READMEHUB_CORS_ORIGINS", "")),
		AllowedHosts: splitAndTrim(getenv("READMEHUB_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("READMEHUB_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("READMEHUB_TRUST_PROXY", true),
	}
}

// ValidateStore checks the document store settings.
func (c *Config) ValidateStore() error {
	switch c.DocstoreBackend {
	case BackendGitHub:
		if c.GitHubOwner == "" || c.GitHubRepo == "" {
			return fmt.Errorf("READMEHUB_GITHUB_OWNER and READMEHUB_GITHUB_REPO are required for the github backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown READMEHUB_DOCSTORE_BACKEND %q (want github or memory)", c.DocstoreBackend)
	}
	return nil
}

// Validate checks the combinations that single variables cannot express.
func (c *Config) Validate() error {
	if err := c.ValidateStore(); err != nil {
		return err
	}

	switch c.Optimizer {
	case OptimizerAnthropic:
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when READMEHUB_OPTIMIZER=anthropic")
		}
	case OptimizerLorem:
	default:
		return fmt.Errorf("unknown READMEHUB_OPTIMIZER %q (want anthropic or lorem)", c.Optimizer)
	}

	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("READMEHUB_SESSION_SECRET must be at least 32 bytes")
	}
	if c.ReloadInterval <= 0 {
		return fmt.Errorf("READMEHUB_RELOAD_INTERVAL must be positive")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	cp := *c
	for _, s := range []*string{&cp.GitHubToken, &cp.RedisPassword, &cp.AdminPassword, &cp.SessionSecret, &cp.AnthropicAPIKey} {
		if *s != "" {
			*s = "***REDACTED***"
		}
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func requireEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		panic(fmt.Sprintf("❌ FATAL: Required environment variable %s is not set", key))
	}
	return v
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
