package simd

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/GoSim-25-26J-441/simulation-optimizer/internal/oracle"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/logger"
	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// ErrServerClosed is returned by every call after Close
var ErrServerClosed = errors.New("oracle server is closed")

// OracleServer exposes one in-process Runtime over gRPC.
// Calls are serialized; the runtime is never entered concurrently.
type OracleServer struct {
	mu     sync.Mutex
	rt     oracle.Runtime
	log    *slog.Logger
	calls  int
	closed bool
}

// NewOracleServer wraps rt. The server owns rt and closes it in Close.
func NewOracleServer(rt oracle.Runtime, log *slog.Logger) *OracleServer {
	return &OracleServer{rt: rt, log: logger.OrDefault(log)}
}

// Calls returns how many Run calls were served
func (s *OracleServer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Close releases the runtime. Later calls fail with FailedPrecondition.
func (s *OracleServer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.rt.Close()
}

func (s *OracleServer) lock() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return toStatus(ErrServerClosed)
	}
	return nil
}

func (s *OracleServer) Arity(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.Int64Value, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	return wrapperspb.Int64(int64(s.rt.Arity())), nil
}

func (s *OracleServer) ConfigureStatic(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	params := oracle.StructToValues(req)
	if err := s.rt.ConfigureStatic(ctx, params); err != nil {
		s.log.Warn("configure static failed", "error", err)
		return nil, toStatus(err)
	}
	s.log.Info("static parameters configured", "params", len(params))
	return &emptypb.Empty{}, nil
}

func (s *OracleServer) Setup(ctx context.Context, req *structpb.ListValue) (*emptypb.Empty, error) {
	inputs, ok := oracle.ListToFloats(req)
	if !ok {
		return nil, status.Error(codes.InvalidArgument, "setup inputs must be numbers")
	}
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	if arity := s.rt.Arity(); arity > 0 && len(inputs) != arity {
		return nil, status.Errorf(codes.InvalidArgument, "expected %d inputs, got %d", arity, len(inputs))
	}
	if err := s.rt.Setup(ctx, inputs); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (s *OracleServer) Run(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	s.calls++
	if err := s.rt.Run(ctx); err != nil {
		s.log.Warn("run failed", "call", s.calls, "error", err)
		return nil, toStatus(err)
	}
	s.log.Debug("run completed", "call", s.calls)
	return &emptypb.Empty{}, nil
}

func (s *OracleServer) Output(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	out, err := s.rt.Output(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	values, ok := out.(oracle.Values)
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "output of type %T cannot be served", out)
	}
	return oracle.ValuesToStruct(values), nil
}

func (s *OracleServer) Reset(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.lock(); err != nil {
		return nil, err
	}
	defer s.mu.Unlock()
	if err := s.rt.Reset(ctx); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// toStatus maps runtime errors onto gRPC codes
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, ErrServerClosed), errors.Is(err, oracle.ErrClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, models.ErrConfiguration):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
