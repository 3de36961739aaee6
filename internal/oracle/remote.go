package oracle

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/config"
)

// RemoteRuntime drives a Runtime served by another process over gRPC
type RemoteRuntime struct {
	conn  grpc.ClientConnInterface
	owned *grpc.ClientConn
	arity int
}

// RemoteFactory dials cfg.Address with insecure credentials
func RemoteFactory(ctx context.Context, cfg config.Oracle) (Runtime, error) {
	return DialRemote(ctx, cfg, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// DialRemote connects to cfg.Address and checks the service answers within the dial timeout
func DialRemote(ctx context.Context, cfg config.Oracle, opts ...grpc.DialOption) (*RemoteRuntime, error) {
	conn, err := grpc.NewClient(cfg.Address, opts...)
	if err != nil {
		return nil, &InitError{Kind: "remote", Err: fmt.Errorf("failed to create client for %s: %w", cfg.Address, err)}
	}
	timeout, err := cfg.GetDialTimeout()
	if err != nil {
		_ = conn.Close()
		return nil, &InitError{Kind: "remote", Err: err}
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	rt, err := NewRemoteRuntime(dialCtx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	rt.owned = conn
	return rt, nil
}

// NewRemoteRuntime wraps an existing connection. The caller keeps ownership of conn.
func NewRemoteRuntime(ctx context.Context, conn grpc.ClientConnInterface) (*RemoteRuntime, error) {
	out := new(wrapperspb.Int64Value)
	if err := conn.Invoke(ctx, FullMethod(methodArity), &emptypb.Empty{}, out, grpc.WaitForReady(true)); err != nil {
		return nil, &InitError{Kind: "remote", Err: fmt.Errorf("oracle service unreachable: %w", err)}
	}
	return &RemoteRuntime{conn: conn, arity: int(out.GetValue())}, nil
}

func (r *RemoteRuntime) Arity() int { return r.arity }

func (r *RemoteRuntime) ConfigureStatic(ctx context.Context, params map[string]float64) error {
	return r.conn.Invoke(ctx, FullMethod(methodConfigureStatic), ValuesToStruct(params), new(emptypb.Empty))
}

func (r *RemoteRuntime) Setup(ctx context.Context, inputs []float64) error {
	return r.conn.Invoke(ctx, FullMethod(methodSetup), FloatsToList(inputs), new(emptypb.Empty))
}

func (r *RemoteRuntime) Run(ctx context.Context) error {
	return r.conn.Invoke(ctx, FullMethod(methodRun), &emptypb.Empty{}, new(emptypb.Empty))
}

func (r *RemoteRuntime) Output(ctx context.Context) (Output, error) {
	out := new(structpb.Struct)
	if err := r.conn.Invoke(ctx, FullMethod(methodOutput), &emptypb.Empty{}, out); err != nil {
		return nil, err
	}
	return StructToValues(out), nil
}

func (r *RemoteRuntime) Reset(ctx context.Context) error {
	return r.conn.Invoke(ctx, FullMethod(methodReset), &emptypb.Empty{}, new(emptypb.Empty))
}

// Close closes the connection if DialRemote created it
func (r *RemoteRuntime) Close() error {
	if r.owned == nil {
		return nil
	}
	return r.owned.Close()
}
