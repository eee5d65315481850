package testhelper

import (
	"io"
	"testing"
)

// CloseOnCleanup closes c when the test finishes and reports a close error.
func CloseOnCleanup(t testing.TB, c io.Closer) {
	t.Helper()
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Errorf("failed to close: %v", err)
		}
	})
}
