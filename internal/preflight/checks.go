package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"vidsub/internal/services"
)

// CheckBackendHealth verifies that the transcription service answers
// /api/health with status "healthy".
func CheckBackendHealth(ctx context.Context, baseURL string, checker HealthChecker) Result {
	const name = "Transcription backend"

	if checker == nil {
		return Result{Name: name, Detail: "not configured"}
	}
	health, err := checker.Health(ctx)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", baseURL, summarizeHealthError(err))}
	}
	if !health.Healthy() {
		status := strings.TrimSpace(health.Status)
		if status == "" {
			status = "no status"
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (reported %q)", baseURL, status)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (healthy)", baseURL)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

func summarizeHealthError(err error) string {
	var statusErr *services.StatusError
	if errors.As(err, &statusErr) {
		return fmt.Sprintf("http %d", statusErr.StatusCode)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "unreachable"
	}
	if errors.Is(err, services.ErrMalformed) {
		return "unexpected response"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return "unreachable"
}
