package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// LLM configuration (OpenAI-compatible protocol)
	LLMProvider string // openai, deepseek, siliconflow, dashscope, openrouter, zai, ollama
	LLMAPIKey   string
	LLMBaseURL  string // optional, has default per provider
	LLMModel    string // default model when a request does not name one
	LLMTimeout  int    // seconds

	// Chat configuration
	MaxHistoryTurns  int    // rows replayed to the model per request
	SystemPromptFile string // optional persona override

	// HTTP tool configuration
	ToolTimeout     int     // seconds
	ToolMaxOutput   int     // characters kept from a response body
	ToolRateLimit   float64 // requests per second, 0 disables the limiter
	ToolURLPolicy   string  // CEL expression, empty allows every URL
	ToolCredentials string  // host=Authorization value pairs separated by ';'

	// File configuration
	FileBackend       string // local or s3
	FilePrefixLimit   int    // characters of an uploaded file inlined into a prompt
	UploadDir         string
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Secret signs bearer tokens.
	Secret string

	Mode    string
	Addr    string
	Data    string
	Driver  string
	DSN     string
	Version string
	Port    int
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL or LLM_MODEL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-4o",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"dashscope": {
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max-latest",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "openai/gpt-4o",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvOrDefaultFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	p.LLMProvider = getEnvOrDefault("WINGMAN_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("WINGMAN_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("WINGMAN_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("WINGMAN_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("WINGMAN_AI_LLM_TIMEOUT_SECONDS", 120)

	if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
		slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
		p.LLMProvider = "openai"
	}
	defaults := llmProviderDefaults[p.LLMProvider]
	if p.LLMBaseURL == "" {
		p.LLMBaseURL = defaults.BaseURL
	}
	if p.LLMModel == "" {
		p.LLMModel = defaults.Model
	}

	p.MaxHistoryTurns = getEnvOrDefaultInt("WINGMAN_CHAT_MAX_HISTORY", 20)
	p.SystemPromptFile = getEnvOrDefault("WINGMAN_CHAT_SYSTEM_PROMPT_FILE", "")

	p.ToolTimeout = getEnvOrDefaultInt("WINGMAN_TOOL_TIMEOUT_SECONDS", 30)
	p.ToolMaxOutput = getEnvOrDefaultInt("WINGMAN_TOOL_MAX_OUTPUT", 5000)
	p.ToolRateLimit = getEnvOrDefaultFloat("WINGMAN_TOOL_RATE_LIMIT", 0)
	p.ToolURLPolicy = getEnvOrDefault("WINGMAN_TOOL_URL_POLICY", "")
	p.ToolCredentials = getEnvOrDefault("WINGMAN_TOOL_CREDENTIALS", "")

	p.FileBackend = getEnvOrDefault("WINGMAN_FILE_BACKEND", "local")
	p.FilePrefixLimit = getEnvOrDefaultInt("WINGMAN_FILE_PREFIX_LIMIT", 2000)
	p.S3Bucket = getEnvOrDefault("WINGMAN_S3_BUCKET", "")
	p.S3Region = getEnvOrDefault("WINGMAN_S3_REGION", "us-east-1")
	p.S3Endpoint = getEnvOrDefault("WINGMAN_S3_ENDPOINT", "")
	p.S3AccessKeyID = getEnvOrDefault("WINGMAN_S3_ACCESS_KEY_ID", "")
	p.S3SecretAccessKey = getEnvOrDefault("WINGMAN_S3_SECRET_ACCESS_KEY", "")

	p.Secret = getEnvOrDefault("WINGMAN_SECRET", "")
}

// ParseToolCredentials splits ToolCredentials into a host → Authorization map.
// Malformed pairs are skipped.
func (p *Profile) ParseToolCredentials() map[string]string {
	result := make(map[string]string)
	for _, pair := range strings.Split(p.ToolCredentials, ";") {
		host, value, ok := strings.Cut(pair, "=")
		host, value = strings.TrimSpace(host), strings.TrimSpace(value)
		if !ok || host == "" || value == "" {
			continue
		}
		result[strings.ToLower(host)] = value
	}
	return result
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "wingman")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/wingman"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check dsn", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		p.DSN = filepath.Join(dataDir, fmt.Sprintf("wingman_%s.db", p.Mode))
	}

	if p.UploadDir == "" {
		p.UploadDir = filepath.Join(dataDir, "uploads")
	}
	if p.FileBackend != "local" && p.FileBackend != "s3" {
		return errors.Errorf("unknown file backend: %s", p.FileBackend)
	}
	if p.FileBackend == "s3" && p.S3Bucket == "" {
		return errors.New("s3 file backend requires WINGMAN_S3_BUCKET")
	}

	if p.MaxHistoryTurns <= 0 {
		return errors.Errorf("max history turns must be positive, got %d", p.MaxHistoryTurns)
	}

	if p.Secret == "" && p.Mode == "prod" {
		return errors.New("WINGMAN_SECRET is required in prod mode")
	}

	return nil
}
