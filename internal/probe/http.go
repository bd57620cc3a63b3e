package probe

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hazz-dev/readygate/internal/readiness"
)

// NewHTTP probes an HTTP(S) endpoint with a GET request. The dependency is
// healthy when the response status matches expectedStatus (200 when zero).
func NewHTTP(target string, expectedStatus int, headers map[string]string) readiness.Probe {
	if expectedStatus == 0 {
		expectedStatus = http.StatusOK
	}
	client := &http.Client{}

	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()

		if resp.StatusCode != expectedStatus {
			return fmt.Errorf("expected status %d, got %d", expectedStatus, resp.StatusCode)
		}
		return nil
	}
}
