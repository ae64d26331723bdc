package config

import (
	"strings"
	"testing"
	"time"
)

func TestRequireEnv(t *testing.T) {
	t.Setenv("READMEHUB_TEST_SET", "value")
	if got := requireEnv("READMEHUB_TEST_SET"); got != "value" {
		t.Errorf("requireEnv() = %q, want value", got)
	}

	defer func() {
		r := recover()
		if r == nil || !strings.Contains(r.(string), "READMEHUB_TEST_MISSING") {
			t.Errorf("requireEnv() panic = %v, want the missing key named", r)
		}
	}()
	requireEnv("READMEHUB_TEST_MISSING")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("READMEHUB_TEST_DURATION", "90s")
	t.Setenv("READMEHUB_TEST_BAD_DURATION", "soon")
	t.Setenv("READMEHUB_TEST_BOOL", "false")
	t.Setenv("READMEHUB_TEST_BAD_BOOL", "maybe")
	t.Setenv("READMEHUB_TEST_INT", "4")
	t.Setenv("READMEHUB_TEST_BAD_INT", "four")

	durations := []struct {
		key  string
		want time.Duration
	}{
		{"READMEHUB_TEST_DURATION", 90 * time.Second},
		{"READMEHUB_TEST_BAD_DURATION", time.Minute},
		{"READMEHUB_TEST_UNSET", time.Minute},
	}
	for _, tt := range durations {
		if got := mustDuration(tt.key, time.Minute); got != tt.want {
			t.Errorf("mustDuration(%s) = %v, want %v", tt.key, got, tt.want)
		}
	}

	bools := []struct {
		key  string
		want bool
	}{
		{"READMEHUB_TEST_BOOL", false},
		{"READMEHUB_TEST_BAD_BOOL", true},
		{"READMEHUB_TEST_UNSET", true},
	}
	for _, tt := range bools {
		if got := mustBool(tt.key, true); got != tt.want {
			t.Errorf("mustBool(%s) = %v, want %v", tt.key, got, tt.want)
		}
	}

	if got := getenvInt("READMEHUB_TEST_INT", 1); got != 4 {
		t.Errorf("getenvInt() = %d, want 4", got)
	}
	if got := getenvInt("READMEHUB_TEST_BAD_INT", 1); got != 1 {
		t.Errorf("getenvInt() with garbage = %d, want default 1", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected []string
	}{
		{name: "empty", in: "", expected: nil},
		{name: "single", in: "blog.example.com", expected: []string{"blog.example.com"}},
		{name: "spaces and quotes", in: ` "a.com" , 'b.com',, c.com `, expected: []string{"a.com", "b.com", "c.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitAndTrim(tt.in)
			if len(result) != len(tt.expected) {
				t.Fatalf("splitAndTrim() = %v, want %v", result, tt.expected)
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("splitAndTrim()[%d] = %v, want %v", i, result[i], tt.expected[i])
				}
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		DocstoreBackend: BackendGitHub,
		GitHubOwner:     "owner",
		GitHubRepo:      "repo",
		SessionSecret:   strings.Repeat("s", 32),
		Optimizer:       OptimizerLorem,
		ReloadInterval:  time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "memory backend needs no repo", mutate: func(c *Config) {
			c.DocstoreBackend = BackendMemory
			c.GitHubOwner, c.GitHubRepo = "", ""
		}},
		{name: "github without repo", mutate: func(c *Config) { c.GitHubRepo = "" }, wantErr: true},
		{name: "unknown backend", mutate: func(c *Config) { c.DocstoreBackend = "s3" }, wantErr: true},
		{name: "anthropic without key", mutate: func(c *Config) { c.Optimizer = OptimizerAnthropic }, wantErr: true},
		{name: "anthropic with key", mutate: func(c *Config) {
			c.Optimizer = OptimizerAnthropic
			c.AnthropicAPIKey = "key"
		}},
		{name: "unknown optimizer", mutate: func(c *Config) { c.Optimizer = "gpt" }, wantErr: true},
		{name: "short secret", mutate: func(c *Config) { c.SessionSecret = "short" }, wantErr: true},
		{name: "zero reload interval", mutate: func(c *Config) { c.ReloadInterval = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("READMEHUB_ADMIN_USERNAME", "admin")
	t.Setenv("READMEHUB_ADMIN_PASSWORD", "hunter2")
	t.Setenv("READMEHUB_SESSION_SECRET", strings.Repeat("x", 40))
	t.Setenv("READMEHUB_DOCSTORE_BACKEND", "Memory")
	t.Setenv("READMEHUB_CORS_ORIGINS", "https://blog.example.com, https://admin.example.com")
	t.Setenv("READMEHUB_LOG_LEVEL", "info")

	cfg := Load()
	if cfg.DocstoreBackend != BackendMemory {
		t.Errorf("DocstoreBackend = %q, want %q", cfg.DocstoreBackend, BackendMemory)
	}
	if cfg.GitHubPath != "data/db.json" || cfg.GitHubBranch != "main" {
		t.Errorf("GitHub defaults = %q@%q", cfg.GitHubPath, cfg.GitHubBranch)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.RedisAddr != "" {
		t.Errorf("RedisAddr = %q, want empty", cfg.RedisAddr)
	}

	t.Setenv("READMEHUB_SESSION_SECRET", "too-short")
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Load() should have panicked on a short secret")
		}
	}()
	Load()
}

func TestRedacted(t *testing.T) {
	c := validConfig()
	c.GitHubToken = "ghp_secret"
	c.AdminPassword = "hunter2"

	r := c.Redacted()
	if r.GitHubToken == "ghp_secret" || r.AdminPassword == "hunter2" || r.SessionSecret == c.SessionSecret {
		t.Errorf("Redacted() leaked a secret: %+v", r)
	}
	if c.GitHubToken != "ghp_secret" {
		t.Error("Redacted() modified the original")
	}
	if r.AnthropicAPIKey != "" {
		t.Error("empty secrets should stay empty")
	}
}

func TestLoadStoreWithoutAdmin(t *testing.T) {
	t.Setenv("READMEHUB_ADMIN_USERNAME", "")
	t.Setenv("READMEHUB_DOCSTORE_BACKEND", BackendGitHub)
	t.Setenv("READMEHUB_GITHUB_OWNER", "owner")
	t.Setenv("READMEHUB_GITHUB_REPO", "blog-data")

	cfg := LoadStore()
	if cfg.GitHubRepo != "blog-data" || cfg.AdminUsername != "" {
		t.Errorf("LoadStore() = %+v", cfg.Redacted())
	}

	t.Setenv("READMEHUB_GITHUB_REPO", "")
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("LoadStore() should have panicked without a repository")
		}
	}()
	LoadStore()
}
