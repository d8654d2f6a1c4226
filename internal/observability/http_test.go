package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientMetaFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws?device=tablet-7", nil)
	req.RemoteAddr = "10.0.0.5:41234"
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("User-Agent", "fieldclient")

	meta := ClientMetaFromRequest(req)
	assert.Equal(t, ClientMeta{DeviceID: "tablet-7", IP: "10.0.0.5", RequestID: "req-1", UserAgent: "fieldclient"}, meta)

	req.Header.Set("X-Device-Id", "phone-1")
	req.Header.Set("X-Real-Ip", "192.0.2.9")
	assert.Equal(t, "phone-1", ClientMetaFromRequest(req).DeviceID)
	assert.Equal(t, "192.0.2.9", ClientMetaFromRequest(req).IP)

	req.Header.Set("X-Forwarded-For", " 203.0.113.4 , 10.0.0.1")
	assert.Equal(t, "203.0.113.4", ClientMetaFromRequest(req).IP)
}
