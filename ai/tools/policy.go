package tools

import (
	"net/url"
	"strings"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"
)

// URLPolicy decides whether an outbound request may be made.
// The expression sees the string variables url, scheme, host and method, e.g.
//
//	scheme == "https" && !host.endsWith(".internal")
type URLPolicy struct {
	expression string
	program    cel.Program
}

// NewURLPolicy compiles expr. An empty expression yields a nil policy, which allows everything.
func NewURLPolicy(expr string) (*URLPolicy, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("url", cel.StringType),
		cel.Variable("scheme", cel.StringType),
		cel.Variable("host", cel.StringType),
		cel.Variable("method", cel.StringType),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create CEL environment")
	}

	celAST, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid url policy: %s", expr)
	}
	if !celAST.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("url policy must evaluate to a bool, got %s", celAST.OutputType())
	}

	program, err := env.Program(celAST)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build url policy program")
	}
	return &URLPolicy{expression: expr, program: program}, nil
}

// Allow reports whether method may be sent to rawURL. A nil policy allows everything.
func (p *URLPolicy) Allow(method, rawURL string) (bool, error) {
	if p == nil {
		return true, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false, errors.Wrapf(err, "failed to parse url %q", rawURL)
	}

	out, _, err := p.program.Eval(map[string]any{
		"url":    rawURL,
		"scheme": strings.ToLower(u.Scheme),
		"host":   strings.ToLower(u.Hostname()),
		"method": strings.ToUpper(method),
	})
	if err != nil {
		return false, errors.Wrap(err, "failed to evaluate url policy")
	}
	allowed, ok := out.Value().(bool)
	if !ok {
		return false, errors.Errorf("url policy returned %T, want bool", out.Value())
	}
	return allowed, nil
}

func (p *URLPolicy) String() string {
	if p == nil {
		return ""
	}
	return p.expression
}
