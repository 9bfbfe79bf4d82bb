package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/wingman/ai/chat"
	"github.com/hrygo/wingman/ai/core/llm"
	"github.com/hrygo/wingman/ai/metrics"
	"github.com/hrygo/wingman/ai/tools"
	"github.com/hrygo/wingman/internal/profile"
	"github.com/hrygo/wingman/plugin/filestore"
	"github.com/hrygo/wingman/plugin/httpcall"
	"github.com/hrygo/wingman/store"
)

func newFileStore(ctx context.Context, profile *profile.Profile) (*filestore.Store, error) {
	switch profile.FileBackend {
	case "s3":
		backend, err := filestore.NewS3Backend(ctx, filestore.S3Config{
			Bucket:          profile.S3Bucket,
			Region:          profile.S3Region,
			Endpoint:        profile.S3Endpoint,
			AccessKeyID:     profile.S3AccessKeyID,
			SecretAccessKey: profile.S3SecretAccessKey,
			UsePathStyle:    profile.S3Endpoint != "",
		})
		if err != nil {
			return nil, err
		}
		slog.Info("Using S3 file backend", "bucket", profile.S3Bucket, "region", profile.S3Region)
		return filestore.New(backend), nil
	default:
		backend, err := filestore.NewLocalBackend(profile.UploadDir)
		if err != nil {
			return nil, err
		}
		return filestore.New(backend), nil
	}
}

// newToolRegistry builds the tools offered to the model.
func newToolRegistry(profile *profile.Profile) (*tools.Registry, error) {
	opts := []httpcall.Option{
		httpcall.WithTimeout(time.Duration(profile.ToolTimeout) * time.Second),
		httpcall.WithMaxOutput(profile.ToolMaxOutput),
		httpcall.WithRateLimit(profile.ToolRateLimit),
	}
	if credentials := profile.ParseToolCredentials(); len(credentials) > 0 {
		opts = append(opts, httpcall.WithCredentials(httpcall.StaticCredentials(credentials)))
	}

	policy, err := tools.NewURLPolicy(profile.ToolURLPolicy)
	if err != nil {
		return nil, errors.Wrap(err, "invalid tool url policy")
	}

	return tools.NewRegistry(tools.NewHTTPRequestTool(httpcall.New(opts...), policy))
}

func newOrchestrator(ctx context.Context, profile *profile.Profile, store *store.Store, files *filestore.Store, exporter *metrics.PrometheusExporter) (*chat.Orchestrator, error) {
	service, err := llm.NewService(&llm.Config{
		Provider: profile.LLMProvider,
		Model:    profile.LLMModel,
		APIKey:   profile.LLMAPIKey,
		BaseURL:  profile.LLMBaseURL,
		Timeout:  profile.LLMTimeout,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("LLM service initialized", "provider", profile.LLMProvider, "model", profile.LLMModel)

	// Best effort: a failed warmup only costs latency on the first request.
	go func() {
		warmupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		service.Warmup(warmupCtx)
	}()

	registry, err := newToolRegistry(profile)
	if err != nil {
		return nil, err
	}

	systemPrompt, err := chat.LoadSystemPrompt(profile.SystemPromptFile)
	if err != nil {
		return nil, err
	}

	return chat.NewOrchestrator(chat.Config{
		SystemPrompt:    systemPrompt,
		MaxHistoryTurns: profile.MaxHistoryTurns,
		FilePrefixLimit: profile.FilePrefixLimit,
	}, store, service, registry,
		chat.WithFileReader(files),
		chat.WithRecorder(exporter),
	), nil
}
