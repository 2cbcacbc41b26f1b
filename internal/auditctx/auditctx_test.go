package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginRoundTrip(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	//nolint:staticcheck // nil context is tolerated
	ctx := WithOrigin(nil, Origin{IPAddress: "10.0.0.7", UserAgent: "curl/8.0"})
	origin, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "10.0.0.7", origin.IPAddress)
	require.Equal(t, "curl/8.0", origin.UserAgent)
}
