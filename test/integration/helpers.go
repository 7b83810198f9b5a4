//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/fivetwenty-io/ostack/internal/constants"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const pollInterval = 2 * time.Second

// TestConfig says which cloud to run against and which binary to run.
// Credentials stay in the OS_* variables or clouds.yaml and reach the
// binary through its environment.
type TestConfig struct {
	AuthURL    string
	CloudName  string
	OstackPath string
	Verbose    bool
}

func LoadTestConfig() *TestConfig {
	return &TestConfig{
		AuthURL:    os.Getenv("OS_AUTH_URL"),
		CloudName:  os.Getenv("OS_CLOUD"),
		OstackPath: binaryPath(),
		Verbose:    os.Getenv("OSTACK_VERBOSE") == "true",
	}
}

// binaryPath prefers OSTACK_BINARY_PATH, then a binary built at the module
// root, then whatever is on PATH.
func binaryPath() string {
	if path := os.Getenv("OSTACK_BINARY_PATH"); path != "" {
		return path
	}

	if _, err := os.Stat("../../ostack"); err == nil {
		return "../../ostack"
	}

	return "ostack"
}

func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.AuthURL == "" && config.CloudName == "" {
		t.Skip("set OS_AUTH_URL or OS_CLOUD to run integration tests")
	}

	if _, err := exec.LookPath(config.OstackPath); err != nil {
		t.Skipf("no ostack binary at %s", config.OstackPath)
	}
}

// CommandRunner runs the binary with a private state directory, so saved
// tokens never leak between tests or into the user's own.
type CommandRunner struct {
	config   *TestConfig
	t        *testing.T
	stateDir string
}

func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{config: config, t: t, stateDir: t.TempDir()}
}

func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput runs the binary with input on stdin.
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer

	cmd := exec.Command(runner.config.OstackPath, args...)
	cmd.Env = append(os.Environ(), constants.EnvConfigDir+"="+runner.stateDir)
	cmd.Stdin = strings.NewReader(input)
	cmd.Stdout = &out
	cmd.Stderr = &errOut

	err = cmd.Run()

	if runner.config.Verbose {
		runner.t.Logf("ostack %s: err=%v\n%s%s", strings.Join(args, " "), err, out.String(), errOut.String())
	}

	return out.String(), errOut.String(), err
}

// Login saves a token in the runner's state directory.
func (runner *CommandRunner) Login() error {
	_, stderr, err := runner.Run("login")
	if err != nil {
		return fmt.Errorf("ostack login: %w: %s", err, strings.TrimSpace(stderr))
	}

	return nil
}

// RunJSON runs a command with JSON output and decodes it into out.
func (runner *CommandRunner) RunJSON(out any, args ...string) {
	runner.t.Helper()

	stdout, stderr, err := runner.Run(append(args, "--output", constants.FormatJSON)...)
	require.NoError(runner.t, err, "ostack %s: %s", strings.Join(args, " "), stderr)
	require.NoError(runner.t, json.Unmarshal([]byte(stdout), out), "decoding %q", stdout)
}

// Cleanup deletes the named resources when the test ends. Failures are
// logged, as the test may already have deleted them.
func (runner *CommandRunner) Cleanup(group string, names ...string) {
	runner.t.Cleanup(func() {
		_, stderr, err := runner.Run(append([]string{group, "delete"}, names...)...)
		if err != nil {
			runner.t.Logf("cleanup of %s %v: %s", group, names, strings.TrimSpace(stderr))
		}
	})
}

// UniqueName returns a resource name no other test run will use.
func UniqueName(kind string) string {
	return "ostack-it-" + kind + "-" + uuid.NewString()[:8]
}

// Eventually polls condition until it holds or timeout passes.
func Eventually(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	require.Eventually(t, condition, timeout, pollInterval, message)
}

func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	assert.True(t, json.Valid([]byte(output)), "not JSON: %s", output)
}

func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	var decoded any

	assert.NoError(t, yaml.Unmarshal([]byte(output), &decoded), "not YAML: %s", output)
	assert.NotNil(t, decoded)
}
