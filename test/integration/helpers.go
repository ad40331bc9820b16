//go:build integration

package integration

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	ServiceURL   string
	ResourceType string
	NATSURL      string
	BinaryPath   string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	resourceType := os.Getenv("TASTYPIE_TEST_TYPE")
	if resourceType == "" {
		resourceType = "user"
	}

	return &TestConfig{
		ServiceURL:   os.Getenv("TASTYPIE_TEST_SERVICE_URL"),
		ResourceType: resourceType,
		NATSURL:      os.Getenv("TASTYPIE_TEST_NATS_URL"),
		BinaryPath:   getBinaryPath(),
		Verbose:      os.Getenv("TASTYPIE_VERBOSE") == "true",
	}
}

// getBinaryPath determines the path to the tastypie binary
func getBinaryPath() string {
	if path := os.Getenv("TASTYPIE_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../tastypie",
		"./tastypie",
		"../tastypie",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "tastypie" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.ServiceURL == "" {
		t.Skip("TASTYPIE_TEST_SERVICE_URL not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.BinaryPath); err != nil {
		t.Skipf("tastypie binary not found at %s, skipping integration test", config.BinaryPath)
	}
}

// CommandRunner provides utilities for running tastypie commands
type CommandRunner struct {
	config     *TestConfig
	t          *testing.T
	configFile string
}

// NewCommandRunner creates a new command runner with its own config file
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		t:          t,
		configFile: t.TempDir() + "/config.yml",
	}
}

func (runner *CommandRunner) command(args ...string) *exec.Cmd {
	full := append([]string{"--config", runner.configFile, "--service", runner.config.ServiceURL}, args...)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.BinaryPath, strings.Join(full, " "))
	}

	return exec.Command(runner.config.BinaryPath, full...) // #nosec G204 -- test binary and arguments
}

// Run executes a tastypie command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	cmd := runner.command(args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// StartBridge runs `tastypie bridge` in the background on subject. The
// returned function stops it.
func (runner *CommandRunner) StartBridge(subject string) (func(), error) {
	cmd := runner.command("bridge", "--nats-url", runner.config.NATSURL, "--nats-subject", subject)

	var stderrBuf bytes.Buffer

	cmd.Stderr = &stderrBuf

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start bridge: %w", err)
	}

	return func() {
		_ = cmd.Process.Signal(os.Interrupt)
		_ = cmd.Wait()

		if runner.config.Verbose {
			runner.t.Logf("Bridge output:\n%s", stderrBuf.String())
		}
	}, nil
}

// GenerateSubject creates a unique NATS subject
func GenerateSubject(prefix string) string {
	return fmt.Sprintf("%s.%d", prefix, time.Now().UnixNano())
}

// WaitForCondition waits for a condition to be met with timeout
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration, message string) {
	t.Helper()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutChan := time.After(timeout)

	for {
		select {
		case <-ticker.C:
			if condition() {
				return
			}
		case <-timeoutChan:
			t.Fatalf("Timeout waiting for condition: %s", message)
		}
	}
}
