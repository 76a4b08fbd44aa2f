package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/datalogger/internal/config"
	"github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/service/common"
)

// Options configures how the CLI reaches the daemon.
type Options struct {
	// ConfigPath to the settings file, defaults to the standard filename if empty.
	ConfigPath string
	// ServerAddress overrides the server address from config when specified.
	ServerAddress string
	// Out receives command output; stdout when nil.
	Out io.Writer
}

// DefaultWatchInterval is the default status refresh period of Watch.
const DefaultWatchInterval = time.Second

// Status prints the daemon status as JSON.
func Status(ctx context.Context, opts *Options) error {
	return withClient(ctx, opts, func(client *common.Client) (*structpb.Struct, error) {
		return client.GetStatus(ctx)
	})
}

// Start starts or restarts the session of a domain.
func Start(ctx context.Context, opts *Options, domain string) error {
	return withClient(ctx, opts, func(client *common.Client) (*structpb.Struct, error) {
		return client.StartSession(ctx, domain)
	})
}

// Stop stops the session of a domain.
func Stop(ctx context.Context, opts *Options, domain string) error {
	return withClient(ctx, opts, func(client *common.Client) (*structpb.Struct, error) {
		return client.StopSession(ctx, domain)
	})
}

// Set updates one panel field.
func Set(ctx context.Context, opts *Options, screen, field, value string) error {
	return withClient(ctx, opts, func(client *common.Client) (*structpb.Struct, error) {
		return client.SetField(ctx, screen, field, value)
	})
}

// Watch prints a one-line summary every interval until ctx is canceled.
// Failed polls are logged and retried.
func Watch(ctx context.Context, opts *Options, interval time.Duration) error {
	ctx = logger.WithName(ctx, "datalogger-ctl")

	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	out := output(opts)

	poll := func() {
		st, err := client.GetStatus(ctx)
		if err != nil {
			logger.ErrorKV(ctx, "GetStatus failed", "error", err)

			return
		}

		_, _ = fmt.Fprintln(out, Summary(st))
	}

	// Poll immediately before starting the loop.
	poll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		}
	}
}

// withClient connects, runs one call and prints its reply.
func withClient(ctx context.Context, opts *Options, call func(*common.Client) (*structpb.Struct, error)) error {
	ctx = logger.WithName(ctx, "datalogger-ctl")

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	reply, err := call(client)
	if err != nil {
		return err
	}

	return printJSON(output(opts), reply)
}

// connect loads settings and dials the daemon with the operator identity attached.
func connect(ctx context.Context, opts *Options) (*common.Client, error) {
	cfg, _, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	clientOptions := []common.Option{common.WithCallTimeout(cfg.Timeout.Std())}

	// Identify current user and hostname for the daemon's audit log.
	actor, err := common.DetectActor()
	if err != nil {
		logger.WarnKV(ctx, "Unable to detect operator identity", "error", err)
	} else {
		clientOptions = append(clientOptions, common.WithActor(actor))
	}

	logger.DebugKV(ctx, "Connecting to data logger", "server_address", serverAddress)

	return common.Dial(ctx, serverAddress, clientOptions...)
}

// printJSON writes a reply as indented JSON.
func printJSON(out io.Writer, reply *structpb.Struct) error {
	marshalOptions := protojson.MarshalOptions{
		Multiline:       true,
		EmitUnpopulated: true,
	}

	data, err := marshalOptions.Marshal(reply)
	if err != nil {
		return fmt.Errorf("encode reply: %w", err)
	}

	_, err = fmt.Fprintln(out, string(data))

	return err
}

// output returns the configured writer or stdout.
func output(opts *Options) io.Writer {
	if opts.Out != nil {
		return opts.Out
	}

	return os.Stdout
}
