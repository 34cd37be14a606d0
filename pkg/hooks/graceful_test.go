package hooks

import (
	"errors"
	"os"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGracefulHook_SubprocessExitCodes re-executes this test binary as a
// child process so we can observe os.Exit(1) without killing the test
// runner itself.
func TestGracefulHook_SubprocessExitCodes(t *testing.T) {
	if os.Getenv("GRACEFUL_HOOK_SUBPROCESS") == "" {
		t.Run("panic", func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=TestGracefulHook_SubprocessExitCodes")
			cmd.Env = append(os.Environ(), "GRACEFUL_HOOK_SUBPROCESS=panic")
			err := cmd.Run()
			var exitErr *exec.ExitError
			if assert.ErrorAs(t, err, &exitErr) {
				assert.Equal(t, ExitNonBlocking, exitErr.ExitCode())
			}
		})
		t.Run("error", func(t *testing.T) {
			cmd := exec.Command(os.Args[0], "-test.run=TestGracefulHook_SubprocessExitCodes")
			cmd.Env = append(os.Environ(), "GRACEFUL_HOOK_SUBPROCESS=error")
			err := cmd.Run()
			var exitErr *exec.ExitError
			if assert.ErrorAs(t, err, &exitErr) {
				assert.Equal(t, ExitNonBlocking, exitErr.ExitCode())
			}
		})
		return
	}

	switch os.Getenv("GRACEFUL_HOOK_SUBPROCESS") {
	case "panic":
		GracefulHook("test", func() error { panic("boom") })()
	case "error":
		GracefulHook("test", func() error { return errors.New("boom") })()
	}
}

func TestGracefulHook_SuccessDoesNotExit(t *testing.T) {
	called := false
	GracefulHook("test", func() error {
		called = true
		return nil
	})()
	assert.True(t, called)
}
