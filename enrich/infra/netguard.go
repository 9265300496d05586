package infra

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"syscall"
)

// ErrPrivateAddress é devolvido pelo dialer quando o destino resolve para a rede interna.
var ErrPrivateAddress = errors.New("destination resolves to a private or reserved address")

// IsBlockedIP cobre loopback, redes privadas, link-local, multicast e não especificado.
func IsBlockedIP(ip netip.Addr) bool {
	ip = ip.Unmap()
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsMulticast() ||
		ip.IsUnspecified()
}

// guardControl valida o IP no momento da conexão (depois do DNS), o que
// também pega rebinding e redirects para a rede interna.
func guardControl(_, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("invalid dial address %q: %w", address, err)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("invalid dial ip %q: %w", host, err)
	}
	if IsBlockedIP(ip) {
		return fmt.Errorf("%w: %s", ErrPrivateAddress, ip)
	}
	return nil
}
