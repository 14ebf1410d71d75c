package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"whisperstudio/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
	outputDir  string
	stateDir   string
	mediaPath  string
}

const whisperStub = `out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -of) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
printf 'hello from the stub engine\n' > "$out.txt"
`

// setupCLITestEnv writes a config pointing at temp directories and stubs
// ffmpeg, ffprobe and whisper-cli on PATH.
func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()
	t.Setenv("WHISPER_MODEL", "")
	t.Setenv("WHISPERSTUDIO_LOCALE", "")

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		outputDir:  filepath.Join(base, "outputs"),
		stateDir:   filepath.Join(base, "state"),
		mediaPath:  filepath.Join(base, "media", "meeting.mp4"),
	}

	fixture := filepath.Join(base, "fixture.wav")
	testsupport.WriteWAV(t, fixture, 1)
	testsupport.WriteFile(t, env.mediaPath, 256)
	model := filepath.Join(base, "models", "ggml-test.bin")
	testsupport.WriteFile(t, model, 16)

	binDir := filepath.Join(base, "bin")
	testsupport.WriteStub(t, binDir, "ffmpeg", fmt.Sprintf("for last; do :; done\ncp %q \"$last\"\n", fixture))
	testsupport.WriteStub(t, binDir, "ffprobe", "echo 12.5\n")
	testsupport.WriteStub(t, binDir, "whisper-cli", whisperStub)
	testsupport.PrependPath(t, binDir)

	content := fmt.Sprintf(`[paths]
output_dir = %q
log_dir = %q
state_dir = %q
assets_dir = %q
inbox_dir = %q
api_bind = "127.0.0.1:1"

[engine]
binary = "whisper-cli"
model_path = %q

[document]
logo_path = ""
font_regular = ""
font_bold = ""

[logging]
level = "error"
`,
		env.outputDir,
		filepath.Join(base, "logs"),
		env.stateDir,
		filepath.Join(base, "assets"),
		filepath.Join(base, "inbox"),
		model,
	)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
