package grpc

import (
	"context"
	"fmt"
	"net"
	"testing"

	"github.com/TomasB/geolocation/internal/data"
	"github.com/TomasB/geolocation/internal/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type mockLookup struct {
	countries map[string]string
	err       error
}

func (m *mockLookup) LookupCountry(ip net.IP) (data.CountryRecord, error) {
	if m.err != nil {
		return data.CountryRecord{}, m.err
	}
	code, ok := m.countries[ip.String()]
	if !ok {
		return data.CountryRecord{}, &data.AddressNotFoundError{IP: ip}
	}
	return data.CountryRecord{IsoCode: code}, nil
}

func (m *mockLookup) Close() error {
	return nil
}

func newTestHandler(lookup data.CountryLookup) *Handler {
	svc := geo.NewService(lookup, nil)
	return NewHandler(svc, geo.NewOrchestrator(svc, nil, 2))
}

func fixtures() *mockLookup {
	return &mockLookup{countries: map[string]string{
		"206.172.131.27": "CA",
		"79.170.232.99":  "FR",
	}}
}

func isoCode(t *testing.T, s *structpb.Struct) string {
	t.Helper()
	country := s.GetFields()["country"].GetStructValue()
	require.NotNil(t, country)
	return country.GetFields()["isoCode"].GetStringValue()
}

func TestLookupExplicitAddress(t *testing.T) {
	h := newTestHandler(fixtures())

	resp, err := h.Lookup(context.Background(), wrapperspb.String("206.172.131.27"))
	require.NoError(t, err)
	assert.Equal(t, "206.172.131.27", resp.GetFields()["ipAddress"].GetStringValue())
	assert.Equal(t, "CA", isoCode(t, resp))
}

func TestLookupFromPeer(t *testing.T) {
	h := newTestHandler(fixtures())
	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP("79.170.232.99"), Port: 41000},
	})

	resp, err := h.Lookup(ctx, wrapperspb.String(""))
	require.NoError(t, err)
	assert.Equal(t, "FR", isoCode(t, resp))
}

func TestLookupMetadataBeforePeer(t *testing.T) {
	h := newTestHandler(fixtures())
	ctx := peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP("79.170.232.99"), Port: 41000},
	})
	ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("x-forwarded-for", "206.172.131.27"))

	resp, err := h.Lookup(ctx, &wrapperspb.StringValue{})
	require.NoError(t, err)
	assert.Equal(t, "CA", isoCode(t, resp))
}

func TestLookupNoAddress(t *testing.T) {
	h := newTestHandler(fixtures())

	_, err := h.Lookup(context.Background(), &wrapperspb.StringValue{})
	assertCode(t, err, codes.InvalidArgument)
	assert.Equal(t, geo.ProblemNoIPAddress, problemType(t, err))
}

func TestLookupInvalidAddress(t *testing.T) {
	h := newTestHandler(fixtures())

	_, err := h.Lookup(context.Background(), wrapperspb.String("not-an-ip"))
	assertCode(t, err, codes.InvalidArgument)
}

func TestLookupNilRequest(t *testing.T) {
	h := newTestHandler(fixtures())

	_, err := h.Lookup(context.Background(), nil)
	assertCode(t, err, codes.InvalidArgument)
}

func TestLookupNotFound(t *testing.T) {
	h := newTestHandler(fixtures())

	_, err := h.Lookup(context.Background(), wrapperspb.String("127.0.0.1"))
	assertCode(t, err, codes.NotFound)
	assert.Equal(t, geo.ProblemAddressNotFound, problemType(t, err))
}

func TestLookupError(t *testing.T) {
	h := newTestHandler(&mockLookup{err: fmt.Errorf("db failure")})

	_, err := h.Lookup(context.Background(), wrapperspb.String("206.172.131.27"))
	assertCode(t, err, codes.Internal)
}

func TestLookupEmptyCountry(t *testing.T) {
	h := newTestHandler(&mockLookup{countries: map[string]string{"206.172.131.27": ""}})

	_, err := h.Lookup(context.Background(), wrapperspb.String("206.172.131.27"))
	assertCode(t, err, codes.Internal)
}

func TestLookupBatchPartial(t *testing.T) {
	h := newTestHandler(fixtures())
	req, err := structpb.NewList([]any{"127.0.0.1", "206.172.131.27", "not_an_ip_address"})
	require.NoError(t, err)

	resp, err := h.LookupBatch(context.Background(), req)
	require.NoError(t, err)

	geolocations := resp.GetFields()["geolocations"].GetListValue().GetValues()
	require.Len(t, geolocations, 1)
	assert.Equal(t, "CA", isoCode(t, geolocations[0].GetStructValue()))

	problem := resp.GetFields()["problemDetails"].GetStructValue()
	require.NotNil(t, problem)
	assert.Equal(t, float64(206), problem.GetFields()["status"].GetNumberValue())
	errs := problem.GetFields()["extensions"].GetStructValue().GetFields()["errors"].GetListValue().GetValues()
	require.Len(t, errs, 2)
	assert.Equal(t, "127.0.0.1", errs[0].GetStructValue().GetFields()["ipAddress"].GetStringValue())
	assert.Equal(t, "not_an_ip_address", errs[1].GetStructValue().GetFields()["ipAddress"].GetStringValue())
}

func TestLookupBatchAllFailed(t *testing.T) {
	h := newTestHandler(fixtures())
	req, err := structpb.NewList([]any{"127.0.0.1", 42.0})
	require.NoError(t, err)

	_, err = h.LookupBatch(context.Background(), req)
	assertCode(t, err, codes.InvalidArgument)
	assert.Equal(t, geo.ProblemUnableToFindGeolocations, problemType(t, err))
}

func TestLookupBatchEmpty(t *testing.T) {
	h := newTestHandler(fixtures())

	_, err := h.LookupBatch(context.Background(), &structpb.ListValue{})
	assertCode(t, err, codes.InvalidArgument)
}

func TestServiceOverBufconn(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterGeolocationServiceServer(srv, newTestHandler(fixtures()))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ctx := metadata.AppendToOutgoingContext(context.Background(), "x-forwarded-for", "79.170.232.99")
	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, LookupFullMethod, &wrapperspb.StringValue{}, out))
	assert.Equal(t, "FR", isoCode(t, out))

	batch, err := structpb.NewList([]any{"206.172.131.27", "79.170.232.99"})
	require.NoError(t, err)
	out = new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), LookupBatchFullMethod, batch, out))
	assert.Len(t, out.GetFields()["geolocations"].GetListValue().GetValues(), 2)

	err = conn.Invoke(context.Background(), LookupFullMethod, wrapperspb.String("127.0.0.1"), new(structpb.Struct))
	assertCode(t, err, codes.NotFound)
}

func problemType(t *testing.T, err error) string {
	t.Helper()
	st, ok := status.FromError(err)
	require.True(t, ok)
	details := st.Details()
	require.Len(t, details, 1)
	problem, ok := details[0].(*structpb.Struct)
	require.True(t, ok, "unexpected detail type %T", details[0])
	return problem.GetFields()["type"].GetStringValue()
}

func assertCode(t *testing.T, err error, want codes.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %v", want)
	}
	if status.Code(err) != want {
		t.Fatalf("expected code %v, got %v", want, status.Code(err))
	}
}
