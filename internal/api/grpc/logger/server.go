package logger

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/datalogger/internal/display"
	"github.com/oshokin/datalogger/internal/domain/measurement"
	applog "github.com/oshokin/datalogger/internal/logger"
	"github.com/oshokin/datalogger/internal/service/engine"
)

// Metadata keys identifying the operator behind a call.
const (
	ActorHostnameKey = "x-actor-hostname"
	ActorUsernameKey = "x-actor-username"
)

// CountField is the pseudo field of the AD screen that clears the edge counter.
const CountField = "count"

// Service abstracts the engine operations the transport depends on.
type Service interface {
	Status() *engine.Status
	StartSession(ctx context.Context, d measurement.Domain) error
	StopSession(ctx context.Context, d measurement.Domain) error
	SetField(ctx context.Context, screen, field, value string) error
	ClearCount(ctx context.Context) error
}

// Server implements LoggerServiceServer.
type Server struct {
	// service runs the commands.
	service Service
}

// NewServer wires the provided service into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
	}
}

// GetStatus returns the view of the last completed tick.
func (s *Server) GetStatus(_ context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	reply, err := EncodeStatus(s.service.Status())
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode status")
	}

	return reply, nil
}

// StartSession starts or restarts the session named by the "domain" field.
func (s *Server) StartSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	d, err := domainArg(req)
	if err != nil {
		return nil, err
	}

	applog.InfoKV(ctx, "Session start requested", append([]any{"domain", d}, actorKV(ctx)...)...)

	if err = s.service.StartSession(ctx, d); err != nil {
		return nil, toStatusError(err)
	}

	return s.sessionReply(d)
}

// StopSession stops the session named by the "domain" field.
func (s *Server) StopSession(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	d, err := domainArg(req)
	if err != nil {
		return nil, err
	}

	applog.InfoKV(ctx, "Session stop requested", append([]any{"domain", d}, actorKV(ctx)...)...)

	if err = s.service.StopSession(ctx, d); err != nil {
		return nil, toStatusError(err)
	}

	return s.sessionReply(d)
}

// SetField stores one operator field. The "count" field of the AD screen clears the edge counter.
func (s *Server) SetField(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	screen := stringArg(req, "screen")
	field := stringArg(req, "field")
	value := stringArg(req, "value")

	if screen == "" || field == "" {
		return nil, status.Error(codes.InvalidArgument, "screen and field are required")
	}

	applog.InfoKV(ctx, "Field update requested",
		append([]any{"screen", screen, "field", field, "value", value}, actorKV(ctx)...)...)

	var err error
	if screen == display.ScreenAD && field == CountField {
		err = s.service.ClearCount(ctx)
	} else {
		err = s.service.SetField(ctx, screen, field, value)
	}

	if err != nil {
		return nil, toStatusError(err)
	}

	return structpb.NewStruct(map[string]any{
		"screen": screen,
		"field":  field,
		"value":  value,
	})
}

// sessionReply encodes one session of the current status.
func (s *Server) sessionReply(d measurement.Domain) (*structpb.Struct, error) {
	st, ok := s.service.Status().Session(d)
	if !ok {
		return nil, status.Error(codes.NotFound, "session not found")
	}

	reply, err := structpb.NewStruct(encodeSession(st))
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode session")
	}

	return reply, nil
}

// domainArg parses the "domain" field of a request.
func domainArg(req *structpb.Struct) (measurement.Domain, error) {
	name := stringArg(req, "domain")
	if name == "" {
		return measurement.DomainNone, status.Error(codes.InvalidArgument, "domain is required")
	}

	d, err := measurement.ParseDomain(name)
	if err != nil {
		return measurement.DomainNone, status.Error(codes.InvalidArgument, err.Error())
	}

	return d, nil
}

// stringArg returns a string field of a request, or "".
func stringArg(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// toStatusError maps engine and validation errors to gRPC codes.
func toStatusError(err error) error {
	switch {
	case errors.Is(err, engine.ErrNotLoggable),
		errors.Is(err, display.ErrUnknownField),
		errors.Is(err, display.ErrInvalidValue):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, engine.ErrBusy):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, engine.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// actorKV returns the caller identity as log key/value pairs.
func actorKV(ctx context.Context) []any {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}

	var kvs []any

	if v := md.Get(ActorHostnameKey); len(v) > 0 {
		kvs = append(kvs, "actor_hostname", v[0])
	}

	if v := md.Get(ActorUsernameKey); len(v) > 0 {
		kvs = append(kvs, "actor_username", v[0])
	}

	return kvs
}
