//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/datalogger/internal/api/grpc/logger"
)

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
}

// TestActor_Outgoing checks that the actor travels in outgoing metadata and a nil actor adds nothing.
func TestActor_Outgoing(t *testing.T) {
	t.Parallel()

	a := &Actor{Hostname: "bench-1", Username: "tech"}

	md, ok := metadata.FromOutgoingContext(a.outgoing(context.Background()))
	require.True(t, ok)
	require.Equal(t, []string{"bench-1"}, md.Get(api.ActorHostnameKey))
	require.Equal(t, []string{"tech"}, md.Get(api.ActorUsernameKey))

	var none *Actor

	_, ok = metadata.FromOutgoingContext(none.outgoing(context.Background()))
	require.False(t, ok)
}
