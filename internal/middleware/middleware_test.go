package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/expensebook/internal/auth"
	"github.com/mmynk/expensebook/internal/metrics"
	"github.com/mmynk/expensebook/internal/models"
)

type empty struct{}

// captureUser is a terminal handler that records the caller it sees.
func captureUser(seen *int64) connect.UnaryFunc {
	return func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		*seen = GetUserID(ctx)
		return connect.NewResponse(&empty{}), nil
	}
}

func requestWithAuth(header string) *connect.Request[empty] {
	req := connect.NewRequest(&empty{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	return req
}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: 42, Email: "alice@example.com"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   connect.Code
		userID int64
	}{
		{name: "valid token", header: "Bearer " + token, userID: 42},
		{name: "missing header", code: connect.CodeUnauthenticated},
		{name: "wrong scheme", header: "Basic " + token, code: connect.CodeUnauthenticated},
		{name: "garbage token", header: "Bearer abc.def.ghi", code: connect.CodeUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen int64
			_, err := RequireAuth(jwtManager)(captureUser(&seen))(context.Background(), requestWithAuth(tt.header))
			if tt.code != 0 {
				assert.Equal(t, tt.code, connect.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.userID, seen)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	token, err := jwtManager.Generate(&models.User{ID: 7, Email: "bob@example.com"})
	require.NoError(t, err)

	var seen int64
	_, err = OptionalAuth(jwtManager)(captureUser(&seen))(context.Background(), requestWithAuth("Bearer "+token))
	require.NoError(t, err)
	assert.Equal(t, int64(7), seen)

	_, err = OptionalAuth(jwtManager)(captureUser(&seen))(context.Background(), requestWithAuth("Bearer nope"))
	require.NoError(t, err, "invalid tokens leave the request anonymous")
	assert.Zero(t, seen)
}

func TestWithUser(t *testing.T) {
	ctx := WithUser(context.Background(), 3, "carol@example.com")
	assert.Equal(t, int64(3), GetUserID(ctx))
	assert.Equal(t, "carol@example.com", GetEmail(ctx))

	assert.Zero(t, GetUserID(context.Background()))
	assert.Empty(t, GetEmail(context.Background()))
}

func TestLoggingAndMetricsInterceptors_PassThrough(t *testing.T) {
	failure := connect.NewError(connect.CodeNotFound, errors.New("missing"))
	failing := func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, failure
	}

	m := metrics.New()
	handler := MetricsInterceptor(m)(LoggingInterceptor()(failing))
	_, err := handler(context.Background(), connect.NewRequest(&empty{}))
	assert.Same(t, failure, err)

	var nilMetrics *metrics.Metrics
	_, err = MetricsInterceptor(nilMetrics)(failing)(context.Background(), connect.NewRequest(&empty{}))
	assert.ErrorIs(t, err, failure)
}

func TestClientError(t *testing.T) {
	assert.True(t, clientError(connect.CodeInvalidArgument))
	assert.True(t, clientError(connect.CodeFailedPrecondition))
	assert.False(t, clientError(connect.CodeInternal))
	assert.False(t, clientError(connect.CodeUnknown))
}
