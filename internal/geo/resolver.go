package geo

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Header names consulted when resolving the subject address, in precedence order.
const (
	HeaderForwardedFor = "X-Forwarded-For"
	HeaderRealIP       = "X-Real-IP"
)

// Signals are the request attributes that may name the subject address.
type Signals struct {
	// ForwardedFor is the raw X-Forwarded-For value; only the first,
	// client-most entry is considered.
	ForwardedFor string
	// RealIP is the raw X-Real-IP value.
	RealIP string
	// RemoteAddr is the transport peer address, "host:port" or a bare literal.
	RemoteAddr string
}

// SignalsFromRequest collects the resolution signals of an HTTP request.
func SignalsFromRequest(r *http.Request) Signals {
	return Signals{
		ForwardedFor: r.Header.Get(HeaderForwardedFor),
		RealIP:       r.Header.Get(HeaderRealIP),
		RemoteAddr:   r.RemoteAddr,
	}
}

// Resolve returns the address a request is about. The first signal holding a
// valid IP literal wins; unparsable values are skipped. ok is false when no
// signal yields an address.
func Resolve(s Signals) (addr netip.Addr, ok bool) {
	if first, _, _ := strings.Cut(s.ForwardedFor, ","); first != "" {
		if addr, ok = parseLiteral(first); ok {
			return addr, true
		}
	}
	if addr, ok = parseLiteral(s.RealIP); ok {
		return addr, true
	}
	return parseHostPort(s.RemoteAddr)
}

func parseLiteral(v string) (netip.Addr, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return netip.Addr{}, false
	}
	addr, err := netip.ParseAddr(v)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr, true
}

func parseHostPort(v string) (netip.Addr, bool) {
	if host, _, err := net.SplitHostPort(v); err == nil {
		return parseLiteral(host)
	}
	return parseLiteral(v)
}
