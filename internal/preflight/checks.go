package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"unitcam/internal/services/ocrapi"
)

const serverCheckTimeout = 5 * time.Second

// CheckServer verifies that the extraction service answers HTTP requests.
// A single attempt is made with a short timeout.
func CheckServer(ctx context.Context, baseURL string, timeoutSeconds int) Result {
	const name = "Extraction service"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}

	timeout := serverCheckTimeout
	if configured := time.Duration(timeoutSeconds) * time.Second; configured > 0 && configured < timeout {
		timeout = configured
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := ocrapi.NewClient(ocrapi.Config{BaseURL: base, TimeoutSeconds: int(timeout / time.Second)})
	if err := client.Ping(checkCtx); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (%s)", base, summarizeServerError(err))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (reachable)", base)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
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

// CheckCameraDevice verifies that a V4L2 device node exists and can be opened
// for reading and writing. Numeric indexes map to /dev/video<N>.
func CheckCameraDevice(name, device string) Result {
	path := DevicePath(device)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: no such device)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.Mode()&os.ModeCharDevice == 0 {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a character device)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v; add the user to the video group)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (accessible)", path)}
}

// DevicePath resolves a configured camera to its device node.
func DevicePath(device string) string {
	device = strings.TrimSpace(device)
	if device == "" {
		return ""
	}
	if index, err := strconv.Atoi(device); err == nil && index >= 0 {
		return fmt.Sprintf("/dev/video%d", index)
	}
	return device
}

func summarizeServerError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "unreachable: " + opErr.Err.Error()
	}
	return err.Error()
}
