package localcache

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ExecArchiver shells out to the system tar binary instead of using the
// built-in engine. The child's stdout and stderr are forwarded line by line
// to the logger as they arrive: one goroutine drains each stream and both
// are joined before process exit is observed, so large output neither
// accumulates in memory nor deadlocks the child on a full pipe.
//
// ExecArchiver always operates on the OS filesystem; it ignores any
// WithFs override on the cache.
type ExecArchiver struct {
	// Tar is the archiver binary. Defaults to "tar".
	Tar string

	// Compressor is passed to tar via --use-compress-program.
	// Defaults to "zstd".
	Compressor string

	// Log receives forwarded process output. Defaults to slog.Default().
	Log *slog.Logger
}

// Ext implements Archiver.
func (a *ExecArchiver) Ext() string {
	switch a.compressor() {
	case "gzip":
		return "tar.gz"
	default:
		return "tar.zst"
	}
}

// Pack implements Archiver.
func (a *ExecArchiver) Pack(ctx context.Context, paths []string, baseDir, dest string) error {
	args := []string{"--use-compress-program", a.compressor(), "-cf", dest, "-C", baseDir, "--"}
	args = append(args, paths...)
	return a.run(ctx, args)
}

// Unpack implements Archiver.
func (a *ExecArchiver) Unpack(ctx context.Context, src, destDir string) error {
	args := []string{"--use-compress-program", a.compressor(), "-xf", src, "-C", destDir}
	return a.run(ctx, args)
}

func (a *ExecArchiver) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.tar(), args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", a.tar(), err)
	}

	g := new(errgroup.Group)
	g.Go(func() error {
		return forwardLines(a.logger(), "stdout", stdout)
	})
	g.Go(func() error {
		return forwardLines(a.logger(), "stderr", stderr)
	})

	// Both streams must be drained before Wait closes the pipes.
	drainErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s %s: %w", a.tar(), strings.Join(args, " "), err)
	}
	if drainErr != nil {
		// The tool did its job; a forwarding hiccup is not a failure.
		a.logger().Warn("failed to drain archive tool output", slog.Any("error", drainErr))
	}
	return nil
}

// forwardLines copies lines from a process stream to the logger as they
// arrive. Lines longer than the read buffer surface as consecutive records,
// so a huge single line neither accumulates in memory nor stops the drain —
// the stream is always consumed to EOF and the child can never block on a
// full pipe.
func forwardLines(log *slog.Logger, stream string, r io.Reader) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		chunk, _, err := br.ReadLine()
		if len(chunk) > 0 {
			log.Info(string(chunk), slog.String("stream", stream))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			// Keep consuming so the child is never left writing into
			// a full pipe.
			_, _ = io.Copy(io.Discard, br)
			return err
		}
	}
}

func (a *ExecArchiver) tar() string {
	if a.Tar != "" {
		return a.Tar
	}
	return "tar"
}

func (a *ExecArchiver) compressor() string {
	if a.Compressor != "" {
		return a.Compressor
	}
	return "zstd"
}

func (a *ExecArchiver) logger() *slog.Logger {
	if a.Log != nil {
		return a.Log
	}
	return slog.Default()
}
