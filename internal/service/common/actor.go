//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/user"

	"google.golang.org/grpc/metadata"

	api "github.com/oshokin/datalogger/internal/api/grpc/logger"
)

// Actor identifies the operator issuing commands.
type Actor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the login name.
	Username string
}

// DetectActor gathers host and user information for the daemon's audit log.
func DetectActor() (*Actor, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("hostname: %w", err)
	}

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("current user: %w", err)
	}

	return &Actor{
		Hostname: hostname,
		Username: currentUser.Username,
	}, nil
}

// outgoing attaches the actor to the call metadata.
func (a *Actor) outgoing(ctx context.Context) context.Context {
	if a == nil {
		return ctx
	}

	return metadata.AppendToOutgoingContext(ctx,
		api.ActorHostnameKey, a.Hostname,
		api.ActorUsernameKey, a.Username,
	)
}
