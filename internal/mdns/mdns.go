package mdns

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service is the mDNS service type radios advertise their command port
// under.
const Service = "_radiocmd._udp"

// Host is a discovered radio.
type Host struct {
	Instance  string // advertised name, e.g. "vxsdr on lab bench"
	Hostname  string // DNS hostname, e.g. "radio-01.local."
	Addresses []net.IP
	Port      int
	TXT       []string
}

// Addr returns a dialable command endpoint, preferring IPv4.
func (h Host) Addr() string {
	for _, ip := range h.Addresses {
		if v4 := ip.To4(); v4 != nil {
			return net.JoinHostPort(v4.String(), fmt.Sprint(h.Port))
		}
	}
	if len(h.Addresses) > 0 {
		return net.JoinHostPort(h.Addresses[0].String(), fmt.Sprint(h.Port))
	}
	return net.JoinHostPort(strings.TrimSuffix(h.Hostname, "."), fmt.Sprint(h.Port))
}

// Discover performs a blocking mDNS browse for radio command services.
// It returns cleaned and deduplicated host entries.
func Discover(ctx context.Context, wait time.Duration) ([]Host, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("resolver error: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resultMap := make(map[string]Host)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case e, ok := <-entries:
				if !ok {
					return
				}
				if e == nil {
					continue
				}

				addrs := make([]net.IP, 0, len(e.AddrIPv4)+len(e.AddrIPv6))
				addrs = append(addrs, e.AddrIPv4...)
				addrs = append(addrs, e.AddrIPv6...)

				key := fmt.Sprintf("%s|%d", e.HostName, e.Port)
				resultMap[key] = Host{
					Instance:  cleanInstance(e.Instance),
					Hostname:  e.HostName,
					Addresses: addrs,
					Port:      e.Port,
					TXT:       append([]string{}, e.Text...),
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, Service, "local.", entries); err != nil {
		return nil, fmt.Errorf("browse error: %w", err)
	}

	<-done

	out := make([]Host, 0, len(resultMap))
	for _, h := range resultMap {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hostname < out[j].Hostname })

	return out, nil
}

// cleanInstance removes zeroconf escape sequences: "\ " => " "
func cleanInstance(s string) string {
	return strings.ReplaceAll(s, `\ `, " ")
}
