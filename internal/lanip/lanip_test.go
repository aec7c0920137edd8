package lanip

import (
	"errors"
	"net"
	"testing"
)

func ipnet(s string) net.Addr {
	ip, n, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	n.IP = ip
	return n
}

func fakeResolver(preferred []string, ifaces []net.Interface, addrs map[string][]net.Addr) *InterfaceResolver {
	return &InterfaceResolver{
		Preferred:  preferred,
		interfaces: func() ([]net.Interface, error) { return ifaces, nil },
		addrs: func(i net.Interface) ([]net.Addr, error) {
			return addrs[i.Name], nil
		},
	}
}

func TestInterfaceResolver(t *testing.T) {
	up := net.FlagUp
	loop := net.FlagUp | net.FlagLoopback

	tests := []struct {
		name   string
		ifaces []net.Interface
		addrs  map[string][]net.Addr
		want   string
		err    error
	}{
		{
			name:   "prefers en0",
			ifaces: []net.Interface{{Name: "eth0", Flags: up}, {Name: "en1", Flags: up}, {Name: "en0", Flags: up}},
			addrs: map[string][]net.Addr{
				"eth0": {ipnet("10.0.0.5/24")},
				"en1":  {ipnet("10.0.1.5/24")},
				"en0":  {ipnet("192.168.1.20/24")},
			},
			want: "192.168.1.20",
		},
		{
			name:   "en1 when en0 has no ipv4",
			ifaces: []net.Interface{{Name: "en0", Flags: up}, {Name: "en1", Flags: up}},
			addrs: map[string][]net.Addr{
				"en0": {ipnet("fe80::1/64")},
				"en1": {ipnet("172.16.0.9/16")},
			},
			want: "172.16.0.9",
		},
		{
			name:   "falls back to first up interface",
			ifaces: []net.Interface{{Name: "lo", Flags: loop}, {Name: "wlan0"}, {Name: "eth0", Flags: up}},
			addrs: map[string][]net.Addr{
				"lo":    {ipnet("127.0.0.1/8")},
				"wlan0": {ipnet("10.9.9.9/24")},
				"eth0":  {ipnet("10.0.0.5/24")},
			},
			want: "10.0.0.5",
		},
		{
			name:   "loopback only",
			ifaces: []net.Interface{{Name: "lo", Flags: loop}},
			addrs:  map[string][]net.Addr{"lo": {ipnet("127.0.0.1/8")}},
			err:    ErrNoAddress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fakeResolver(DefaultPreferred, tt.ifaces, tt.addrs)
			got, err := r.Resolve()
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("Resolve() error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterfaceResolverListError(t *testing.T) {
	r := &InterfaceResolver{
		interfaces: func() ([]net.Interface, error) { return nil, errors.New("boom") },
	}
	if _, err := r.Resolve(); err == nil {
		t.Error("Resolve() succeeded, want error")
	}
}

func TestStatic(t *testing.T) {
	if got, err := Static("10.1.2.3").Resolve(); err != nil || got != "10.1.2.3" {
		t.Errorf("Resolve() = %q, %v", got, err)
	}
	if _, err := Static("").Resolve(); !errors.Is(err, ErrNoAddress) {
		t.Errorf("empty Static error = %v, want ErrNoAddress", err)
	}
}
