//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	api "github.com/oshokin/datalogger/internal/api/grpc/logger"
	"github.com/oshokin/datalogger/internal/config"
)

// Client calls the logger service with convenience helpers.
type Client struct {
	// conn is the underlying gRPC connection to the daemon.
	conn *grpc.ClientConn
	// actor is attached to every call when set.
	actor *Actor
	// dialOptions are appended to the default dial options.
	dialOptions []grpc.DialOption

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithActor attaches the operator identity to every call.
func WithActor(actor *Actor) Option {
	return func(c *Client) {
		c.actor = actor
	}
}

// WithDialOptions adds gRPC dial options, e.g. a custom dialer.
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(c *Client) {
		c.dialOptions = append(c.dialOptions, opts...)
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errArgumentRequired is returned when a command argument is empty.
	errArgumentRequired = errors.New("argument must be provided")
)

// Dial establishes a gRPC connection to the logger daemon.
// Note: this uses insecure transport credentials; the daemon is expected on
// the local machine or a trusted bench network.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	client := &Client{
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	dialOptions := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, client.dialOptions...)

	// Use the non-context NewClient API recommended by grpc-go
	// (DialContext is deprecated as of grpc-go v1.60+).
	conn, err := grpc.NewClient(address, dialOptions...)
	if err != nil {
		return nil, fmt.Errorf("dial logger daemon: %w", err)
	}

	client.conn = conn

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// GetStatus retrieves the view of the daemon's last completed tick.
func (c *Client) GetStatus(ctx context.Context) (*structpb.Struct, error) {
	reply := new(structpb.Struct)
	if err := c.invoke(ctx, api.GetStatusMethod, new(emptypb.Empty), reply); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return reply, nil
}

// StartSession starts or restarts the session of a domain ("ad", "iv", "temp").
func (c *Client) StartSession(ctx context.Context, domain string) (*structpb.Struct, error) {
	reply, err := c.domainCall(ctx, api.StartSessionMethod, domain)
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}

	return reply, nil
}

// StopSession stops the session of a domain.
func (c *Client) StopSession(ctx context.Context, domain string) (*structpb.Struct, error) {
	reply, err := c.domainCall(ctx, api.StopSessionMethod, domain)
	if err != nil {
		return nil, fmt.Errorf("stop session: %w", err)
	}

	return reply, nil
}

// SetField updates one operator field on the daemon's panel.
func (c *Client) SetField(ctx context.Context, screen, field, value string) (*structpb.Struct, error) {
	if screen == "" || field == "" {
		return nil, errArgumentRequired
	}

	request, err := structpb.NewStruct(map[string]any{
		"screen": screen,
		"field":  field,
		"value":  value,
	})
	if err != nil {
		return nil, err
	}

	reply := new(structpb.Struct)
	if err = c.invoke(ctx, api.SetFieldMethod, request, reply); err != nil {
		return nil, fmt.Errorf("set field: %w", err)
	}

	return reply, nil
}

// domainCall sends a request carrying only a domain name.
func (c *Client) domainCall(ctx context.Context, method, domain string) (*structpb.Struct, error) {
	if domain == "" {
		return nil, errArgumentRequired
	}

	request, err := structpb.NewStruct(map[string]any{"domain": domain})
	if err != nil {
		return nil, err
	}

	reply := new(structpb.Struct)
	if err = c.invoke(ctx, method, request, reply); err != nil {
		return nil, err
	}

	return reply, nil
}

// invoke runs one unary call with the call timeout and the actor metadata.
func (c *Client) invoke(ctx context.Context, method string, request, reply proto.Message) error {
	callCtx, cancel := c.callContext(c.actor.outgoing(ctx))
	defer cancel()

	return c.conn.Invoke(callCtx, method, request, reply)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
