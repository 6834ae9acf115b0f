package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientIP(t *testing.T) {
	tests := map[string]string{
		"192.168.1.47":                      "192.168.1.0",
		"192.168.1.47:52311":                "192.168.1.0",
		"127.0.0.1":                         "127.0.0.0",
		"::ffff:10.1.2.3":                   "10.1.2.0",
		"2001:db8:85a3::8a2e:370:7334":      "2001:db8:85a3::",
		"[2001:db8:85a3::8a2e:370:7334]:80": "2001:db8:85a3::",
		"":                                  "unknown",
		"not-an-ip":                         "invalid",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ClientIP(in))
		})
	}
}
