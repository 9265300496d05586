package infra

import (
	"errors"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsBlockedIP(t *testing.T) {
	blocked := []string{"127.0.0.1", "10.1.2.3", "192.168.0.10", "172.16.5.4", "169.254.169.254", "::1", "fc00::1", "0.0.0.0", "::ffff:127.0.0.1"}
	for _, s := range blocked {
		assert.True(t, IsBlockedIP(netip.MustParseAddr(s)), s)
	}

	allowed := []string{"93.184.216.34", "8.8.8.8", "2606:4700:4700::1111"}
	for _, s := range allowed {
		assert.False(t, IsBlockedIP(netip.MustParseAddr(s)), s)
	}
}

func TestGuardControl(t *testing.T) {
	err := guardControl("tcp4", "127.0.0.1:80", nil)
	assert.True(t, errors.Is(err, ErrPrivateAddress))

	assert.NoError(t, guardControl("tcp4", "93.184.216.34:443", nil))
	assert.Error(t, guardControl("tcp4", "not-an-address", nil))
}
