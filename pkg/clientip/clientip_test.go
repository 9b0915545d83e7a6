package clientip_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/gatekit/pkg/clientip"
)

func TestFromRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expected   string
	}{
		{
			name: "X-Forwarded-For first valid IP",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.195, 198.51.100.178",
				"X-Real-IP":       "10.0.0.1",
			},
			remoteAddr: "172.16.0.1:54321",
			expected:   "203.0.113.195",
		},
		{
			name: "X-Forwarded-For skips invalid entries",
			headers: map[string]string{
				"X-Forwarded-For": "not-an-ip, 198.51.100.178",
			},
			remoteAddr: "172.16.0.1:54321",
			expected:   "198.51.100.178",
		},
		{
			name: "X-Real-IP when no forwarded header",
			headers: map[string]string{
				"X-Real-IP": "198.51.100.7",
			},
			remoteAddr: "172.16.0.1:54321",
			expected:   "198.51.100.7",
		},
		{
			name:       "RemoteAddr fallback",
			remoteAddr: "192.0.2.44:9999",
			expected:   "192.0.2.44",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.0.2.44",
			expected:   "192.0.2.44",
		},
		{
			name: "IPv6 normalization",
			headers: map[string]string{
				"X-Forwarded-For": "2001:0db8:0000:0000:0000:0000:0000:0001",
			},
			remoteAddr: "172.16.0.1:54321",
			expected:   "2001:db8::1",
		},
		{
			name: "all headers invalid falls through",
			headers: map[string]string{
				"X-Forwarded-For": "garbage",
				"X-Real-IP":       "also-garbage",
			},
			remoteAddr: "192.0.2.44:1234",
			expected:   "192.0.2.44",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			assert.Equal(t, tt.expected, clientip.FromRequest(r))
		})
	}
}
