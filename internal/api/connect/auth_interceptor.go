package connect

import (
	"context"
	"crypto/subtle"

	"connectrpc.com/connect"
	"github.com/cockroachdb/errors"
)

const (
	// APITokenHeader is the header name for API authentication token.
	APITokenHeader = "X-Api-Token"
)

var errInvalidToken = errors.New("missing or invalid api token")

// AuthInterceptor validates the API token on every unary and streaming
// call. With an empty token every call is let through.
type AuthInterceptor struct {
	token string
}

var _ connect.Interceptor = (*AuthInterceptor)(nil)

// NewAuthInterceptor creates an interceptor that validates tokens from
// request metadata.
func NewAuthInterceptor(token string) *AuthInterceptor {
	return &AuthInterceptor{token: token}
}

func (i *AuthInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		// Clients only attach the token; servers check it.
		if req.Spec().IsClient {
			return next(ctx, req)
		}
		if err := i.check(req.Header().Get(APITokenHeader)); err != nil {
			return nil, err
		}
		return next(ctx, req)
	}
}

func (i *AuthInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (i *AuthInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		if err := i.check(conn.RequestHeader().Get(APITokenHeader)); err != nil {
			return err
		}
		return next(ctx, conn)
	}
}

func (i *AuthInterceptor) check(token string) error {
	if i.token == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(i.token)) != 1 {
		return connect.NewError(connect.CodeUnauthenticated, errInvalidToken)
	}
	return nil
}

// NewTokenInterceptor creates a client interceptor that attaches token to
// every outgoing call.
func NewTokenInterceptor(token string) connect.Interceptor {
	return &tokenInterceptor{token: token}
}

type tokenInterceptor struct {
	token string
}

func (t *tokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if t.token != "" {
			req.Header().Set(APITokenHeader, t.token)
		}
		return next(ctx, req)
	}
}

func (t *tokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if t.token != "" {
			conn.RequestHeader().Set(APITokenHeader, t.token)
		}
		return conn
	}
}

func (t *tokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
