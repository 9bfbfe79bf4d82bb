package httpcall

import (
	"context"
	"strings"
)

// CredentialSource resolves the Authorization header value for a host.
// It is consulted per request so credentials can vary by caller.
type CredentialSource interface {
	Authorization(ctx context.Context, host string) (string, bool)
}

// StaticCredentials maps a lower-case host name to an Authorization value.
type StaticCredentials map[string]string

func (s StaticCredentials) Authorization(_ context.Context, host string) (string, bool) {
	value, ok := s[strings.ToLower(host)]
	return value, ok
}
