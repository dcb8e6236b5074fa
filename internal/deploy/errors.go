package deploy

import "fmt"

// TokenRetrievalError means the join credential could not be read from the
// initializer after its service started. It is always fatal for the run:
// no joiner can proceed without the token.
type TokenRetrievalError struct {
	Host string
	Path string
	Err  error
}

func (e *TokenRetrievalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to retrieve join token from %s:%s: %v", e.Host, e.Path, e.Err)
	}
	return fmt.Sprintf("join token at %s:%s is empty", e.Host, e.Path)
}

func (e *TokenRetrievalError) Unwrap() error { return e.Err }
