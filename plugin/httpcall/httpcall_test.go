package httpcall

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_JSONBodyIsCompacted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, "{\n  \"name\": \"wingman\",\n  \"id\": 12345678901234567890,\n  \"tags\": [\"a\", \"<b>\"]\n}")
	}))
	defer server.Close()

	result, err := New().Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "Status: 200\nResult:\n"+`{"id":12345678901234567890,"name":"wingman","tags":["a","<b>"]}`, result)
}

func TestDo_TextBodyIsKeptRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "plain text {not json")
	}))
	defer server.Close()

	result, err := New().Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "Status: 200\nResult:\nplain text {not json", result)
}

func TestDo_BodyIsTruncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, strings.Repeat("é", DefaultMaxOutput+10))
	}))
	defer server.Close()

	result, err := New().Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	body := strings.TrimPrefix(result, "Status: 200\nResult:\n")
	assert.True(t, strings.HasSuffix(body, TruncationMarker))
	assert.Equal(t, DefaultMaxOutput, len([]rune(strings.TrimSuffix(body, TruncationMarker))))
}

func TestDo_MethodHeadersAndPayload(t *testing.T) {
	var gotMethod, gotHeader, gotContentType string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Trace")
		gotContentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	result, err := New().Do(context.Background(), &Request{
		URL:     server.URL,
		Method:  "post",
		Headers: map[string]string{"X-Trace": "abc"},
		Payload: map[string]any{"name": "task"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Status: 201\nResult:\n", result)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "abc", gotHeader)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, "task", gotPayload["name"])
}

func TestDo_NonSuccessStatusIsRendered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"missing"}`)
	}))
	defer server.Close()

	result, err := New().Do(context.Background(), &Request{URL: server.URL + "/x"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "Error executing request: 404 Not Found for url: "+server.URL+"/x"), result)
	assert.Contains(t, result, `{"error":"missing"}`)
}

func TestDo_TransportErrorIsRendered(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	result, err := New().Do(context.Background(), &Request{URL: addr})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "Error executing request: "), result)
}

func TestDo_TimeoutIsRendered(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	result, err := New(WithTimeout(50*time.Millisecond)).Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "Error executing request: "), result)
}

func TestDo_RedirectPolicy(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "moved here")
	}))
	defer target.Close()
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/landing", http.StatusFound)
	}))
	defer origin.Close()

	t.Run("followed without a policy", func(t *testing.T) {
		result, err := New().Do(context.Background(), &Request{URL: origin.URL})
		require.NoError(t, err)
		assert.Equal(t, "Status: 200\nResult:\nmoved here", result)
	})

	t.Run("client policy refuses hop", func(t *testing.T) {
		var hops []string
		client := New(WithRedirectPolicy(func(method string, next *url.URL) error {
			hops = append(hops, method+" "+next.String())
			return errors.New("hop refused")
		}))

		result, err := client.Do(context.Background(), &Request{URL: origin.URL})
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(result, "Error executing request: "), result)
		assert.Contains(t, result, "hop refused")
		assert.NotContains(t, result, "moved here")
		assert.Equal(t, []string{"GET " + target.URL + "/landing"}, hops)
	})

	t.Run("request policy overrides client policy", func(t *testing.T) {
		client := New(WithRedirectPolicy(func(string, *url.URL) error { return errors.New("client says no") }))

		result, err := client.Do(context.Background(), &Request{
			URL:      origin.URL,
			Redirect: func(string, *url.URL) error { return nil },
		})
		require.NoError(t, err)
		assert.Equal(t, "Status: 200\nResult:\nmoved here", result)
	})
}

func TestDo_RedirectLoopStops(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	client := New(WithRedirectPolicy(func(string, *url.URL) error { return nil }))
	result, err := client.Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.Contains(t, result, "stopped after 10 redirects")
}

func TestDo_URLRequired(t *testing.T) {
	_, err := New().Do(context.Background(), &Request{Method: "GET"})
	assert.ErrorIs(t, err, ErrURLRequired)

	_, err = New().Do(context.Background(), nil)
	assert.ErrorIs(t, err, ErrURLRequired)
}

func TestDo_InvalidURLIsRendered(t *testing.T) {
	result, err := New().Do(context.Background(), &Request{URL: "not a url"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "Error executing request: invalid url"), result)
}

func TestDo_CredentialsInjectedPerHost(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := New(WithCredentials(StaticCredentials{"127.0.0.1": "pk_secret"}))

	_, err := client.Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)
	assert.Equal(t, "pk_secret", gotAuth)

	_, err = client.Do(context.Background(), &Request{URL: server.URL, Headers: map[string]string{"Authorization": "mine"}})
	require.NoError(t, err)
	assert.Equal(t, "mine", gotAuth, "caller supplied Authorization wins")
}

func TestDo_RateLimitHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	client := New(WithRateLimit(0.001))
	_, err := client.Do(context.Background(), &Request{URL: server.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	result, err := client.Do(ctx, &Request{URL: server.URL})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result, "Error executing request: rate limit"), result)
}

func TestRenderBody(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"object", `{"b": 1, "a": 2}`, `{"a":2,"b":1}`},
		{"array", `[1, 2, 3]`, `[1,2,3]`},
		{"trailing garbage", `{"a":1} tail`, `{"a":1} tail`},
		{"empty", ``, ``},
		{"html", `<html></html>`, `<html></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderBody([]byte(tt.in)))
		})
	}
}
