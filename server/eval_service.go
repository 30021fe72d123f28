package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/chazu/clox/cache"
	"github.com/chazu/clox/compiler"
	"github.com/chazu/clox/pkg/bytecode"
	"github.com/chazu/clox/vm"
)

// EvalService implements the clox.v1.EvalService Connect handlers.
type EvalService struct {
	worker *VMWorker
	store  *cache.Store // optional
}

// NewEvalService creates an EvalService. store may be nil to compile every
// request from scratch.
func NewEvalService(worker *VMWorker, store *cache.Store) *EvalService {
	return &EvalService{
		worker: worker,
		store:  store,
	}
}

// register mounts the unary handlers on mux.
func (s *EvalService) register(mux *http.ServeMux, opts ...connect.HandlerOption) {
	mux.Handle(EvaluateProcedure, connect.NewUnaryHandler(EvaluateProcedure, s.Evaluate, opts...))
	mux.Handle(CompileProcedure, connect.NewUnaryHandler(CompileProcedure, s.Compile, opts...))
	mux.Handle(DisassembleProcedure, connect.NewUnaryHandler(DisassembleProcedure, s.Disassemble, opts...))
}

// Evaluate compiles and executes a clox expression. Compile and runtime
// failures are reported in the response; only malformed requests are RPC
// errors.
func (s *EvalService) Evaluate(
	ctx context.Context,
	req *connect.Request[SourceRequest],
) (*connect.Response[EvaluateResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	id := uuid.NewString()
	resp := &EvaluateResponse{RequestID: id}

	chunk, cached, err := s.compile(source)
	if err != nil {
		resp.Status = vm.StatusCompileError.String()
		resp.Diagnostics = diagnosticsOf(err)
		resp.Error = err.Error()
		log.Debugf("evaluate %s: %s", id, resp.Status)
		return connect.NewResponse(resp), nil
	}
	resp.Cached = cached

	type outcome struct {
		value  bytecode.Value
		status vm.Status
		err    error
	}
	result, err := s.worker.Do(func(v *vm.VM) interface{} {
		value, status, err := v.InterpretChunk(chunk)
		return outcome{value, status, err}
	})
	if err != nil {
		if errors.Is(err, ErrWorkerStopped) {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	out := result.(outcome)
	resp.Status = out.status.String()
	if out.err != nil {
		resp.Error = out.err.Error()
	} else {
		resp.Result = out.value.String()
	}
	log.Debugf("evaluate %s: %s", id, resp.Status)
	return connect.NewResponse(resp), nil
}

// Compile compiles source and returns the serialized chunk.
func (s *EvalService) Compile(
	ctx context.Context,
	req *connect.Request[SourceRequest],
) (*connect.Response[CompileResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	resp := &CompileResponse{RequestID: uuid.NewString()}
	chunk, _, err := s.compile(source)
	if err != nil {
		resp.Diagnostics = diagnosticsOf(err)
		return connect.NewResponse(resp), nil
	}

	data, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	resp.Success = true
	resp.Chunk = data
	return connect.NewResponse(resp), nil
}

// Disassemble compiles source and returns its listing.
func (s *EvalService) Disassemble(
	ctx context.Context,
	req *connect.Request[SourceRequest],
) (*connect.Response[DisassembleResponse], error) {
	source := req.Msg.Source
	if source == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("source is required"))
	}

	name := req.Msg.Name
	if name == "" {
		name = "code"
	}

	resp := &DisassembleResponse{RequestID: uuid.NewString()}
	chunk, _, err := s.compile(source)
	if err != nil {
		resp.Diagnostics = diagnosticsOf(err)
		return connect.NewResponse(resp), nil
	}
	resp.Success = true
	resp.Text = chunk.Disassemble(name)
	return connect.NewResponse(resp), nil
}

// compile goes through the chunk cache when one is configured.
func (s *EvalService) compile(source string) (*bytecode.Chunk, bool, error) {
	if s.store != nil {
		return s.store.Compile(source)
	}
	chunk, err := compiler.Compile(source)
	return chunk, false, err
}
