package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"whisperstudio/internal/config"
	"whisperstudio/internal/deps"
	"whisperstudio/internal/services"
)

// MissingKind names what CheckEngine could not find.
type MissingKind string

const (
	MissingBinary MissingKind = "binary"
	MissingModel  MissingKind = "model"
)

// MissingError reports an engine prerequisite that is absent. It matches
// services.ErrConfiguration.
type MissingError struct {
	Kind   MissingKind
	Path   string
	Detail string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s: engine %s unavailable: %s", services.ErrConfiguration, e.Kind, e.Detail)
}

// Is lets errors.Is(err, services.ErrConfiguration) match.
func (e *MissingError) Is(target error) bool {
	return target == services.ErrConfiguration
}

// CheckEngine verifies the recognizer binary resolves and the model file
// exists. It runs before a run directory is allocated.
func CheckEngine(binary, modelPath string) error {
	if _, err := deps.Resolve(binary); err != nil {
		return &MissingError{Kind: MissingBinary, Path: strings.TrimSpace(binary), Detail: err.Error()}
	}
	model := deps.CheckFile(deps.Requirement{Name: "Model", Command: modelPath})
	if !model.Available {
		return &MissingError{Kind: MissingModel, Path: strings.TrimSpace(modelPath), Detail: model.Detail}
	}
	return nil
}

// CheckAPI verifies that a whisperstudio server answers on bind.
func CheckAPI(ctx context.Context, bind string) Result {
	const name = "API server"
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return Result{Name: name, Detail: "missing bind address"}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 2 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, "http://"+bind+"/healthz", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%v)", err)}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: summarizeDialError(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", resp.StatusCode)}
	}
	return Result{Name: name, Passed: true, Detail: "Running on " + bind}
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

// CheckSystemDeps evaluates the external tools and model file for the given
// config. Both the CLI status command and RunAll use this list.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "whisper.cpp",
			Command:     cfg.Engine.Binary,
			Description: "Required for speech recognition",
		},
		{
			Name:        "FFmpeg",
			Command:     cfg.Tools.FFmpeg,
			Description: "Required for audio normalization and splitting",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Tools.FFprobe,
			Description: "Used to measure input duration",
			Optional:    true,
		},
		{
			Name:        "yt-dlp",
			Command:     cfg.Tools.YTDLP,
			Description: "Required for remote URLs",
			Optional:    true,
		},
	})
	statuses = append(statuses, deps.CheckFile(deps.Requirement{
		Name:        "Model",
		Command:     cfg.Engine.ModelPath,
		Description: "whisper.cpp model weights",
	}))
	return statuses
}

func summarizeDialError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "not running"
	}
	return err.Error()
}
