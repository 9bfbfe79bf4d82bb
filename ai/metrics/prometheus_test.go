package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, exporter *PrometheusExporter) string {
	t.Helper()
	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	w := httptest.NewRecorder()

	exporter.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	return w.Body.String()
}

func TestPrometheusExporter(t *testing.T) {
	exporter := NewPrometheusExporter(DefaultConfig())

	t.Run("RecordChatRequest", func(t *testing.T) {
		exporter.RecordChatRequest("gpt-4o", "success", 100*time.Millisecond)
		exporter.RecordChatRequest("gpt-4o", "success", 200*time.Millisecond)
		exporter.RecordChatRequest("gpt-4o", "llm_error", 150*time.Millisecond)

		body := scrape(t, exporter)
		if !strings.Contains(body, `wingman_chat_requests_total{model="gpt-4o",outcome="success"} 2`) {
			t.Errorf("expected two successful requests in output:\n%s", body)
		}
	})

	t.Run("ChatStarted", func(t *testing.T) {
		done := exporter.ChatStarted()
		if body := scrape(t, exporter); !strings.Contains(body, "wingman_chat_active_requests 1") {
			t.Error("expected one active request")
		}
		done()
		if body := scrape(t, exporter); !strings.Contains(body, "wingman_chat_active_requests 0") {
			t.Error("expected no active requests")
		}
	})

	t.Run("RecordToolCall", func(t *testing.T) {
		exporter.RecordToolCall("http_request", 50*time.Millisecond, true, "")
		exporter.RecordToolCall("http_request", 100*time.Millisecond, false, "unknown_tool")

		body := scrape(t, exporter)
		if !strings.Contains(body, `wingman_chat_tool_errors_total{error_type="unknown_tool",tool_name="http_request"} 1`) {
			t.Errorf("expected one tool error in output:\n%s", body)
		}
	})

	t.Run("RecordLLMCall", func(t *testing.T) {
		exporter.RecordLLMCall("gpt-4o", "initial", 500*time.Millisecond, 100, 50, nil)
		exporter.RecordLLMCall("gpt-4o", "final", 500*time.Millisecond, 0, 0, errors.New("boom"))

		body := scrape(t, exporter)
		if !strings.Contains(body, `wingman_chat_llm_tokens_total{model="gpt-4o",token_type="prompt"} 100`) {
			t.Errorf("expected prompt tokens in output:\n%s", body)
		}
		if !strings.Contains(body, `wingman_chat_llm_errors_total{model="gpt-4o",phase="final"} 1`) {
			t.Errorf("expected one llm error in output:\n%s", body)
		}
	})

	t.Run("RecordHistoryMessages", func(t *testing.T) {
		exporter.RecordHistoryMessages(4)
		if body := scrape(t, exporter); !strings.Contains(body, "wingman_chat_history_messages_count 1") {
			t.Error("expected one history observation")
		}
	})
}

func TestPrometheusExporterCustomRegistry(t *testing.T) {
	exporter := NewPrometheusExporter(Config{})
	exporter.RecordChatRequest("test", "success", 50*time.Millisecond)

	if exporter.GetRegistry() == nil {
		t.Fatal("expected a registry to be created")
	}
	if body := scrape(t, exporter); !strings.Contains(body, "wingman_chat_request_latency_seconds") {
		t.Error("expected latency histogram in output")
	}
}

func BenchmarkPrometheusExporter(b *testing.B) {
	exporter := NewPrometheusExporter(DefaultConfig())

	b.Run("RecordChatRequest", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordChatRequest("gpt-4o", "success", 100*time.Millisecond)
		}
	})

	b.Run("RecordToolCall", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			exporter.RecordToolCall("http_request", 50*time.Millisecond, true, "")
		}
	})
}
