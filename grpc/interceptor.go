package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	oa "github.com/panyam/authgate"
)

// InterceptorConfig configures the auth interceptors.
type InterceptorConfig struct {
	// MetadataKeyToken is the metadata key carrying the session token.
	// Defaults to "authorization".
	MetadataKeyToken string

	// Verify turns a presented token into a user id. Empty id with nil
	// error means unauthenticated.
	Verify func(ctx context.Context, token string) (userID string, err error)

	// RequireAuth when true rejects unauthenticated requests.
	// When false, requests proceed but UserIDFromContext returns empty.
	RequireAuth bool

	// PublicMethods is a set of method names that skip the auth
	// requirement. Only used when RequireAuth is true. Keys are full
	// method names like "/package.Service/Method".
	PublicMethods map[string]bool
}

// NewInterceptorConfig returns a config that verifies signed session
// tokens with the given secret and requires auth for all methods.
func NewInterceptorConfig(secret string, publicMethods ...string) *InterceptorConfig {
	config := &InterceptorConfig{
		RequireAuth:   true,
		PublicMethods: make(map[string]bool),
		Verify: func(ctx context.Context, token string) (string, error) {
			userID, _, err := oa.VerifySessionToken(token, secret)
			return userID, err
		},
	}
	for _, method := range publicMethods {
		config.PublicMethods[method] = true
	}
	return config
}

func (c *InterceptorConfig) ensureDefaults() {
	if c.MetadataKeyToken == "" {
		c.MetadataKeyToken = DefaultMetadataKeyToken
	}
}

// UnaryAuthInterceptor returns a gRPC unary interceptor that verifies the
// session token from request metadata.
func UnaryAuthInterceptor(config *InterceptorConfig) grpc.UnaryServerInterceptor {
	config.ensureDefaults()
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		userID := config.resolveUserID(ctx)
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && userID == "" {
			return nil, status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(WithUserID(ctx, userID), req)
	}
}

// StreamAuthInterceptor returns the stream-side equivalent of
// UnaryAuthInterceptor.
func StreamAuthInterceptor(config *InterceptorConfig) grpc.StreamServerInterceptor {
	config.ensureDefaults()
	return func(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		userID := config.resolveUserID(ss.Context())
		if config.RequireAuth && !config.PublicMethods[info.FullMethod] && userID == "" {
			return status.Error(codes.Unauthenticated, "authentication required")
		}
		return handler(srv, &authedStream{ServerStream: ss, ctx: WithUserID(ss.Context(), userID)})
	}
}

func (c *InterceptorConfig) resolveUserID(ctx context.Context) string {
	token := tokenFromMetadata(ctx, c.MetadataKeyToken)
	if token == "" || c.Verify == nil {
		return ""
	}
	userID, err := c.Verify(ctx, token)
	if err != nil {
		return ""
	}
	return userID
}

// authedStream overrides the stream context with one carrying the user id.
type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }
