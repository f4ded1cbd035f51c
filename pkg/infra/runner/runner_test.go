package runner_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/onnxify/pkg/domain/model"
	"github.com/m-mizutani/onnxify/pkg/infra/runner"
)

func shell(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
	return "/bin/sh"
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()
	sh := shell(t)
	r := runner.New()

	t.Run("captures output of successful command", func(t *testing.T) {
		result, err := r.Run(ctx, &model.Command{
			Name: sh,
			Args: []string{"-c", "echo out; echo warn >&2"},
		})
		gt.NoError(t, err)
		gt.Value(t, result.ExitCode).Equal(0)
		gt.String(t, result.Stdout).Equal("out\n")
		gt.String(t, result.Stderr).Equal("warn\n")
	})

	t.Run("nonzero exit is a result, not an error", func(t *testing.T) {
		result, err := r.Run(ctx, &model.Command{
			Name: sh,
			Args: []string{"-c", "echo failed >&2; exit 3"},
		})
		gt.NoError(t, err)
		gt.Value(t, result.ExitCode).Equal(3)
		gt.String(t, result.Stderr).Equal("failed\n")
	})

	t.Run("runs in the given directory", func(t *testing.T) {
		dir := t.TempDir()
		result, err := r.Run(ctx, &model.Command{
			Name: sh,
			Args: []string{"-c", "pwd -P"},
			Dir:  dir,
		})
		gt.NoError(t, err)

		// macOS tmp dirs are symlinked, compare resolved paths
		want, err := filepath.EvalSymlinks(dir)
		gt.NoError(t, err)
		gt.String(t, result.Stdout).Equal(want + "\n")
	})

	t.Run("environment is not inherited", func(t *testing.T) {
		t.Setenv("ONNXIFY_RUNNER_TEST", "leaked")
		result, err := r.Run(ctx, &model.Command{
			Name: sh,
			Args: []string{"-c", "echo \"[$ONNXIFY_RUNNER_TEST]\""},
		})
		gt.NoError(t, err)
		gt.String(t, result.Stdout).Equal("[]\n")
	})

	t.Run("launch failure is an error", func(t *testing.T) {
		result, err := r.Run(ctx, &model.Command{
			Name: "/nonexistent/onnxify-test-binary",
		})
		gt.Error(t, err)
		gt.Value(t, result).Nil()
	})

	t.Run("cancelled context does not kill the process", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		result, err := r.Run(cctx, &model.Command{
			Name: sh,
			Args: []string{"-c", "echo done"},
		})
		gt.NoError(t, err)
		gt.String(t, result.Stdout).Equal("done\n")
	})
}
