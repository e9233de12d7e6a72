package grpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/netip"

	"github.com/TomasB/geolocation/internal/geo"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Metadata keys consulted for the caller's address.
const (
	mdForwardedFor = "x-forwarded-for"
	mdRealIP       = "x-real-ip"
)

// Handler implements the gRPC GeolocationService.
type Handler struct {
	service      *geo.Service
	orchestrator *geo.Orchestrator
}

var _ GeolocationServiceServer = (*Handler)(nil)

// NewHandler creates a new gRPC handler.
func NewHandler(service *geo.Service, orchestrator *geo.Orchestrator) *Handler {
	return &Handler{service: service, orchestrator: orchestrator}
}

// Lookup geolocates req, or the caller resolved from metadata and peer when req is empty.
func (h *Handler) Lookup(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	var (
		addr    netip.Addr
		ok      bool
		subject = req.GetValue()
	)
	if subject != "" {
		parsed, err := netip.ParseAddr(subject)
		addr, ok = parsed, err == nil
	} else {
		addr, ok = geo.Resolve(signalsFromContext(ctx))
		subject = addr.String()
	}
	if !ok {
		return respond(geo.ClassifyNoAddress(LookupFullMethod))
	}
	return respond(geo.ClassifySingle(subject, h.service.LookupCountry(addr), LookupFullMethod))
}

// LookupBatch geolocates every string in req. Non-string values are
// reported as invalid addresses.
func (h *Handler) LookupBatch(_ context.Context, req *structpb.ListValue) (*structpb.Struct, error) {
	values := req.GetValues()
	if len(values) == 0 {
		return respond(geo.ClassifyNoAddress(LookupBatchFullMethod))
	}

	addresses := make([]string, len(values))
	for i, v := range values {
		addresses[i] = v.GetStringValue()
	}
	return respond(geo.ClassifyBatch(h.orchestrator.RunBatch(addresses), LookupBatchFullMethod))
}

func signalsFromContext(ctx context.Context) geo.Signals {
	var s geo.Signals
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(mdForwardedFor); len(v) > 0 {
			s.ForwardedFor = v[0]
		}
		if v := md.Get(mdRealIP); len(v) > 0 {
			s.RealIP = v[0]
		}
	}
	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		s.RemoteAddr = p.Addr.String()
	}
	return s
}

// respond returns 2xx bodies as the reply and everything else as a status
// error carrying the problem payload as a detail.
func respond(resp geo.Response) (*structpb.Struct, error) {
	if resp.Status < http.StatusBadRequest {
		body, err := toStruct(resp.Body)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return body, nil
	}

	problem, _ := resp.Body.(geo.Problem)
	st := status.New(codeFor(resp.Status), problem.Detail)
	if detail, err := toStruct(problem); err == nil {
		if withDetails, err := st.WithDetails(detail); err == nil {
			st = withDetails
		}
	}
	return nil, st.Err()
}

func codeFor(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusNotFound:
		return codes.NotFound
	default:
		return codes.Internal
	}
}

func toStruct(body any) (*structpb.Struct, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return structpb.NewStruct(fields)
}
