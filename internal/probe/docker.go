package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/hazz-dev/readygate/internal/readiness"
)

const dockerSockPath = "/var/run/docker.sock"

// ContainerState holds the minimal Docker container state we care about.
type ContainerState struct {
	Running bool
}

// DockerClient abstracts Docker Engine API access for testability.
type DockerClient interface {
	InspectContainer(ctx context.Context, name string) (*ContainerState, error)
}

// NewDocker probes a container by name: healthy when the container exists
// and is running.
func NewDocker(container string) readiness.Probe {
	return NewDockerWithClient(container, newUnixDockerClient())
}

// NewDockerWithClient creates a docker probe with a custom client (for testing).
func NewDockerWithClient(container string, client DockerClient) readiness.Probe {
	return func(ctx context.Context) error {
		state, err := client.InspectContainer(ctx, container)
		if err != nil {
			return err
		}
		if !state.Running {
			return fmt.Errorf("container %q is not running", container)
		}
		return nil
	}
}

// unixDockerClient queries the Docker Engine API over the Unix socket.
type unixDockerClient struct {
	client *http.Client
}

func newUnixDockerClient() *unixDockerClient {
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", dockerSockPath)
		},
	}
	return &unixDockerClient{
		client: &http.Client{Transport: transport},
	}
}

func (d *unixDockerClient) InspectContainer(ctx context.Context, name string) (*ContainerState, error) {
	url := fmt.Sprintf("http://localhost/containers/%s/json", name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying docker socket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("container %q not found", name)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("docker API returned status %d", resp.StatusCode)
	}

	var body struct {
		State ContainerState `json:"State"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding docker response: %w", err)
	}
	return &body.State, nil
}
