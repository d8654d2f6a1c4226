package observability

import (
	"net"
	"net/http"
	"strings"
)

// ClientMeta identifies the caller of an HTTP or websocket request.
type ClientMeta struct {
	DeviceID  string
	IP        string
	RequestID string
	UserAgent string
}

// ClientMetaFromRequest reads caller metadata from headers. Browsers cannot set
// headers on a websocket handshake, so the device id may also arrive as ?device=.
func ClientMetaFromRequest(r *http.Request) ClientMeta {
	device := r.Header.Get("X-Device-Id")
	if device == "" {
		device = r.URL.Query().Get("device")
	}
	return ClientMeta{
		DeviceID:  device,
		IP:        clientIP(r),
		RequestID: r.Header.Get("X-Request-Id"),
		UserAgent: r.UserAgent(),
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if real := strings.TrimSpace(r.Header.Get("X-Real-Ip")); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
