package agents

import "context"

// TokenSource supplies bearer tokens for the agents platform. Real credential
// acquisition (managed identity, CLI login) lives behind this interface.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns the same token for every call.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}
