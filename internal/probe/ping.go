package probe

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/hazz-dev/readygate/internal/readiness"
)

var rttRegex = regexp.MustCompile(`time=(\d+\.?\d*)\s*ms`)

// NewPing probes a host with a single ICMP echo via the system ping binary.
func NewPing(host string) readiness.Probe {
	return newPing(host, &osExecutor{})
}

// NewPingWithExecutor creates a ping probe with a custom executor (for testing).
func NewPingWithExecutor(host string, exec CommandExecutor) readiness.Probe {
	return newPing(host, exec)
}

func newPing(host string, executor CommandExecutor) readiness.Probe {
	return func(ctx context.Context) error {
		// ping wants a whole-second deadline; derive one from however
		// much budget the evaluator left us.
		timeoutSec := 1
		if deadline, ok := ctx.Deadline(); ok {
			remaining := time.Until(deadline).Seconds()
			if s := int(math.Ceil(remaining)); s > 1 {
				timeoutSec = s
			}
		}

		var args []string
		if runtime.GOOS == "darwin" {
			args = []string{"-c", "1", "-t", strconv.Itoa(timeoutSec), host}
		} else {
			args = []string{"-c", "1", "-W", strconv.Itoa(timeoutSec), host}
		}

		stdout, _, err := executor.Run(ctx, "ping", args...)
		if err != nil {
			return fmt.Errorf("ping %s: %w", host, err)
		}

		if rttRegex.FindSubmatch(stdout) == nil {
			return fmt.Errorf("ping %s: could not parse RTT from output", host)
		}
		return nil
	}
}
