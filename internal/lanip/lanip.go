// Package lanip resolves the address remote clients use to reach this machine.
package lanip

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoAddress is returned when no usable IPv4 interface exists.
var ErrNoAddress = errors.New("no LAN IPv4 address found")

// Resolver returns the machine's LAN address.
type Resolver interface {
	Resolve() (string, error)
}

// DefaultPreferred lists interfaces tried before any other.
var DefaultPreferred = []string{"en0", "en1"}

// InterfaceResolver picks the IPv4 address of the first preferred interface
// that has one, then the first up, non-loopback interface with one.
type InterfaceResolver struct {
	Preferred []string

	// interfaces is replaced in tests.
	interfaces func() ([]net.Interface, error)
	addrs      func(net.Interface) ([]net.Addr, error)
}

// NewInterfaceResolver returns a resolver using DefaultPreferred.
func NewInterfaceResolver() *InterfaceResolver {
	return &InterfaceResolver{Preferred: DefaultPreferred}
}

// Resolve implements Resolver.
func (r *InterfaceResolver) Resolve() (string, error) {
	listIfaces := r.interfaces
	if listIfaces == nil {
		listIfaces = net.Interfaces
	}
	ifaces, err := listIfaces()
	if err != nil {
		return "", fmt.Errorf("list interfaces: %w", err)
	}

	byName := make(map[string]net.Interface, len(ifaces))
	for _, iface := range ifaces {
		byName[iface.Name] = iface
	}

	for _, name := range r.Preferred {
		iface, ok := byName[name]
		if !ok {
			continue
		}
		if ip := r.ipv4(iface); ip != "" {
			return ip, nil
		}
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if ip := r.ipv4(iface); ip != "" {
			return ip, nil
		}
	}

	return "", ErrNoAddress
}

func (r *InterfaceResolver) ipv4(iface net.Interface) string {
	listAddrs := r.addrs
	if listAddrs == nil {
		listAddrs = func(i net.Interface) ([]net.Addr, error) { return i.Addrs() }
	}
	addrs, err := listAddrs(iface)
	if err != nil {
		return ""
	}
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip4 := ip.To4(); ip4 != nil && !ip4.IsLoopback() {
			return ip4.String()
		}
	}
	return ""
}

// Static always resolves to addr.
type Static string

// Resolve implements Resolver.
func (s Static) Resolve() (string, error) {
	if s == "" {
		return "", ErrNoAddress
	}
	return string(s), nil
}
