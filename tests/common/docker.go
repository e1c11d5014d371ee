// Package common provides shared test infrastructure
package common

import (
	"os"
	"testing"
)

// DockerEnv enables container-backed integration tests.
const DockerEnv = "CRYPTOTRACK_TEST_DOCKER"

// RequireDocker skips the test unless container tests are enabled.
func RequireDocker(t *testing.T) {
	t.Helper()
	if os.Getenv(DockerEnv) != "true" {
		t.Skipf("set %s=true to run container tests", DockerEnv)
	}
}
