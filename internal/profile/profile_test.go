package profile

import (
	"os"
	"testing"
)

var profileEnvVars = []string{
	"WINGMAN_AI_LLM_PROVIDER",
	"WINGMAN_AI_LLM_API_KEY",
	"WINGMAN_AI_LLM_BASE_URL",
	"WINGMAN_AI_LLM_MODEL",
	"WINGMAN_AI_LLM_TIMEOUT_SECONDS",
	"WINGMAN_CHAT_MAX_HISTORY",
	"WINGMAN_TOOL_TIMEOUT_SECONDS",
	"WINGMAN_TOOL_MAX_OUTPUT",
	"WINGMAN_TOOL_RATE_LIMIT",
	"WINGMAN_TOOL_CREDENTIALS",
	"WINGMAN_FILE_BACKEND",
	"WINGMAN_FILE_PREFIX_LIMIT",
	"WINGMAN_SECRET",
}

func clearProfileEnvVars(t *testing.T) {
	for _, key := range profileEnvVars {
		t.Setenv(key, "")
	}
}

// TestProfileDefaults checks the defaults applied by FromEnv.
func TestProfileDefaults(t *testing.T) {
	clearProfileEnvVars(t)

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected any
		actual   any
	}{
		{"LLMProvider", "openai", profile.LLMProvider},
		{"LLMBaseURL", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel", "gpt-4o", profile.LLMModel},
		{"LLMTimeout", 120, profile.LLMTimeout},
		{"MaxHistoryTurns", 20, profile.MaxHistoryTurns},
		{"ToolTimeout", 30, profile.ToolTimeout},
		{"ToolMaxOutput", 5000, profile.ToolMaxOutput},
		{"ToolRateLimit", 0.0, profile.ToolRateLimit},
		{"FileBackend", "local", profile.FileBackend},
		{"FilePrefixLimit", 2000, profile.FilePrefixLimit},
		{"IsAIEnabled", false, profile.IsAIEnabled()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s = %v, want %v", tt.name, tt.actual, tt.expected)
			}
		})
	}
}

func TestProfileProviderDefaults(t *testing.T) {
	clearProfileEnvVars(t)
	t.Setenv("WINGMAN_AI_LLM_PROVIDER", "deepseek")

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMBaseURL != "https://api.deepseek.com" {
		t.Errorf("LLMBaseURL = %q, want deepseek default", profile.LLMBaseURL)
	}
	if profile.LLMModel != "deepseek-chat" {
		t.Errorf("LLMModel = %q, want %q", profile.LLMModel, "deepseek-chat")
	}
}

func TestProfileUnknownProviderFallsBack(t *testing.T) {
	clearProfileEnvVars(t)
	t.Setenv("WINGMAN_AI_LLM_PROVIDER", "nope")
	t.Setenv("WINGMAN_AI_LLM_MODEL", "custom-model")

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMProvider != "openai" {
		t.Errorf("LLMProvider = %q, want %q", profile.LLMProvider, "openai")
	}
	if profile.LLMModel != "custom-model" {
		t.Errorf("LLMModel = %q, want explicit model to win", profile.LLMModel)
	}
}

func TestParseToolCredentials(t *testing.T) {
	profile := &Profile{ToolCredentials: "api.clickup.com=pk_123; API.Example.com = Bearer abc ;broken;=x"}
	got := profile.ParseToolCredentials()

	if len(got) != 2 {
		t.Fatalf("len(credentials) = %d, want 2: %v", len(got), got)
	}
	if got["api.clickup.com"] != "pk_123" {
		t.Errorf("api.clickup.com = %q, want %q", got["api.clickup.com"], "pk_123")
	}
	if got["api.example.com"] != "Bearer abc" {
		t.Errorf("api.example.com = %q, want %q", got["api.example.com"], "Bearer abc")
	}
}

func TestValidate(t *testing.T) {
	t.Run("sqlite DSN derived from data dir", func(t *testing.T) {
		dir := t.TempDir()
		profile := &Profile{Mode: "dev", Data: dir, Driver: "sqlite", FileBackend: "local", MaxHistoryTurns: 20}
		if err := profile.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if want := dir + string(os.PathSeparator) + "wingman_dev.db"; profile.DSN != want {
			t.Errorf("DSN = %q, want %q", profile.DSN, want)
		}
		if want := dir + string(os.PathSeparator) + "uploads"; profile.UploadDir != want {
			t.Errorf("UploadDir = %q, want %q", profile.UploadDir, want)
		}
	})

	t.Run("unknown mode becomes demo", func(t *testing.T) {
		profile := &Profile{Mode: "staging", Data: t.TempDir(), Driver: "sqlite", FileBackend: "local", MaxHistoryTurns: 20}
		if err := profile.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if profile.Mode != "demo" {
			t.Errorf("Mode = %q, want demo", profile.Mode)
		}
	})

	t.Run("prod requires secret", func(t *testing.T) {
		profile := &Profile{Mode: "prod", Data: t.TempDir(), Driver: "sqlite", FileBackend: "local", MaxHistoryTurns: 20}
		if err := profile.Validate(); err == nil {
			t.Error("Validate() error = nil, want missing secret error")
		}
	})

	t.Run("s3 requires bucket", func(t *testing.T) {
		profile := &Profile{Mode: "dev", Data: t.TempDir(), Driver: "sqlite", FileBackend: "s3", MaxHistoryTurns: 20}
		if err := profile.Validate(); err == nil {
			t.Error("Validate() error = nil, want missing bucket error")
		}
	})

	t.Run("missing data dir", func(t *testing.T) {
		profile := &Profile{Mode: "dev", Data: "/definitely/not/here", Driver: "sqlite", FileBackend: "local", MaxHistoryTurns: 20}
		if err := profile.Validate(); err == nil {
			t.Error("Validate() error = nil, want data dir error")
		}
	})
}
