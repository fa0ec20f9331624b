package httpclient

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/peltload/pelt/internal/config"
)

// dialFunc matches http.Transport.DialContext.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// newDialContext builds a dialer that honours the configured address
// family and applies TCP_NODELAY to every new connection.
func newDialContext(strategy config.DNSStrategy, noDelay bool) dialFunc {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	resolver := &net.Resolver{}

	lookupNetwork := "ip"
	switch strategy {
	case config.DNSIPv4:
		lookupNetwork = "ip4"
	case config.DNSIPv6:
		lookupNetwork = "ip6"
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}

		var conn net.Conn
		if ip := net.ParseIP(host); ip != nil {
			conn, err = dialer.DialContext(ctx, network, addr)
		} else {
			ips, lookupErr := resolver.LookupIP(ctx, lookupNetwork, host)
			if lookupErr != nil {
				return nil, lookupErr
			}
			if len(ips) == 0 {
				return nil, &net.DNSError{Err: "no addresses for host", Name: host}
			}
			for _, ip := range ips {
				conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
				if err == nil {
					break
				}
			}
		}
		if err != nil {
			return nil, err
		}
		if conn == nil {
			return nil, fmt.Errorf("dial %s: no connection established", addr)
		}

		if tcp, ok := conn.(*net.TCPConn); ok {
			if err := tcp.SetNoDelay(noDelay); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		return conn, nil
	}
}
