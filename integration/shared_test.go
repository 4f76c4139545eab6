//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
)

// sampleFixture is the event dump every integration test reports on, relative to the project root.
const sampleFixture = "internal/fixture/testdata/sample.yaml"

var (
	// sharedDevflowPath holds the path to a shared devflow binary built once for all tests.
	sharedDevflowPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getDevflowBinary returns the path to the devflow binary, building it once if needed.
func getDevflowBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "devflow-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		devflowPath := filepath.Join(tempDir, "devflow")
		buildCmd := exec.Command("go", "build", "-o", devflowPath, "./cmd/devflow")
		buildCmd.Dir = ".." // Build from project root
		if out, err := buildCmd.CombinedOutput(); err != nil {
			panic(fmt.Sprintf("failed to build devflow: %v\n%s", err, out))
		}

		sharedDevflowPath = devflowPath
	})

	return sharedDevflowPath
}

// runDevflowCommand runs devflow from the project root with extra environment
// variables and returns its stdout.
func runDevflowCommand(t *testing.T, env map[string]string, args ...string) ([]byte, error) {
	t.Helper()
	cmd := exec.Command(getDevflowBinary(), args...)
	cmd.Dir = ".."
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	var stderr []byte
	output, err := cmd.Output()
	if exitErr, ok := err.(*exec.ExitError); ok {
		stderr = exitErr.Stderr
	}
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s\nStderr: %s", cmd.String(), output, stderr)
	}
	return output, err
}
