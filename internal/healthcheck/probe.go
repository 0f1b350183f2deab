package healthcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"stagehand/internal/containerizer"
)

// DefaultProbeTimeout bounds a single probe when the probe does not set one.
const DefaultProbeTimeout = 5 * time.Second

// ProbeKind selects how a probe is executed.
type ProbeKind int

const (
	// ProbeSkip always reports healthy with a reason.
	ProbeSkip ProbeKind = iota
	// ProbeHTTP issues one GET and matches the status code.
	ProbeHTTP
	// ProbeCommand runs a command inside the container; exit code 0 is healthy.
	ProbeCommand
)

func (k ProbeKind) String() string {
	switch k {
	case ProbeHTTP:
		return "http"
	case ProbeCommand:
		return "command"
	default:
		return "skip"
	}
}

// Execer runs a command inside a container.
type Execer interface {
	Exec(ctx context.Context, cmd []string) (containerizer.ExecResult, error)
}

// Probe is a closed set of health check variants. Build one with HTTP,
// Command or Skip and run it with Execute.
type Probe struct {
	Kind ProbeKind

	// ProbeHTTP
	URL         string
	StatusCodes []int

	// ProbeCommand
	Cmd    []string
	Target Execer

	// ProbeSkip
	Reason string

	Timeout time.Duration
}

// HTTP returns a probe that GETs url and accepts the given status codes.
// With no codes only 200 is accepted.
func HTTP(url string, timeout time.Duration, codes ...int) Probe {
	if len(codes) == 0 {
		codes = []int{http.StatusOK}
	}
	return Probe{
		Kind:        ProbeHTTP,
		URL:         url,
		StatusCodes: codes,
		Timeout:     timeout,
	}
}

// Command returns a probe that runs cmd inside target.
func Command(target Execer, timeout time.Duration, cmd ...string) Probe {
	return Probe{
		Kind:    ProbeCommand,
		Cmd:     cmd,
		Target:  target,
		Timeout: timeout,
	}
}

// Skip returns a probe that always succeeds.
func Skip(reason string) Probe {
	return Probe{Kind: ProbeSkip, Reason: reason}
}

// accepts reports whether status is one of the probe's accepted codes.
func (p Probe) accepts(status int) bool {
	for _, code := range p.StatusCodes {
		if code == status {
			return true
		}
	}
	return false
}

// Result is the outcome of one probe run.
type Result struct {
	Name         string        `json:"name" yaml:"name"`
	Healthy      bool          `json:"healthy" yaml:"healthy"`
	ResponseTime time.Duration `json:"responseTime,omitempty" yaml:"responseTime,omitempty"`
	StatusCode   int           `json:"statusCode,omitempty" yaml:"statusCode,omitempty"`
	Error        string        `json:"error,omitempty" yaml:"error,omitempty"`
	Reason       string        `json:"reason,omitempty" yaml:"reason,omitempty"`
}

var probeClient = &http.Client{
	// Redirects are reported as-is so 3xx codes can be matched explicitly.
	CheckRedirect: func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	},
}

// Execute runs probe and reports the outcome for name. It never returns an
// error: timeouts, connection failures, unexpected status codes and non-zero
// exit codes all produce an unhealthy Result.
func Execute(ctx context.Context, name string, probe Probe) Result {
	switch probe.Kind {
	case ProbeHTTP:
		return executeHTTP(ctx, name, probe)
	case ProbeCommand:
		return executeCommand(ctx, name, probe)
	case ProbeSkip:
		return Result{Name: name, Healthy: true, Reason: probe.Reason}
	default:
		return Result{Name: name, Error: fmt.Sprintf("unknown probe kind %d", probe.Kind)}
	}
}

func probeTimeout(p Probe) time.Duration {
	if p.Timeout <= 0 {
		return DefaultProbeTimeout
	}
	return p.Timeout
}

func executeHTTP(ctx context.Context, name string, probe Probe) Result {
	timeout := probeTimeout(probe)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probe.URL, nil)
	if err != nil {
		return Result{Name: name, Error: fmt.Sprintf("invalid probe url: %v", err)}
	}

	resp, err := probeClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, ResponseTime: elapsed, Error: fmt.Sprintf("timeout after %s", timeout)}
		}
		return Result{Name: name, ResponseTime: elapsed, Error: err.Error()}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result := Result{
		Name:         name,
		ResponseTime: elapsed,
		StatusCode:   resp.StatusCode,
	}
	if probe.accepts(resp.StatusCode) {
		result.Healthy = true
	} else {
		result.Error = fmt.Sprintf("unexpected status code %d", resp.StatusCode)
	}
	return result
}

func executeCommand(ctx context.Context, name string, probe Probe) Result {
	if probe.Target == nil || len(probe.Cmd) == 0 {
		return Result{Name: name, Error: "command probe has no target or command"}
	}

	timeout := probeTimeout(probe)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	res, err := probe.Target.Exec(ctx, probe.Cmd)
	elapsed := time.Since(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return Result{Name: name, ResponseTime: elapsed, Error: fmt.Sprintf("timeout after %s", timeout)}
		}
		return Result{Name: name, ResponseTime: elapsed, Error: err.Error()}
	}
	if res.ExitCode != 0 {
		msg := fmt.Sprintf("%s exited with code %d", probe.Cmd[0], res.ExitCode)
		if detail := strings.TrimSpace(res.Stderr + " " + res.Stdout); detail != "" {
			msg += ": " + detail
		}
		return Result{Name: name, ResponseTime: elapsed, Error: msg}
	}
	return Result{Name: name, Healthy: true, ResponseTime: elapsed}
}
