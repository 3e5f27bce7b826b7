// Package testing switches the process into test mode when imported by tests.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("RETAIL_TEST_MODE", "1")
		if os.Getenv("DEFAULT_TENANT") == "" {
			_ = os.Setenv("DEFAULT_TENANT", "tenant-test")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
