package probe

import (
	"context"
	"fmt"
	"net"

	"github.com/hazz-dev/readygate/internal/readiness"
)

// NewTCP probes a host:port address by opening and closing one TCP
// connection.
func NewTCP(target string) readiness.Probe {
	dialer := &net.Dialer{}

	return func(ctx context.Context) error {
		conn, err := dialer.DialContext(ctx, "tcp", target)
		if err != nil {
			return fmt.Errorf("dial tcp %s: %w", target, err)
		}
		conn.Close()
		return nil
	}
}
