package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/oyt/backend/internal/storage"
)

// CommandRunner executes external commands and returns their combined output.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Thumbnailer renders the first frame of a stored video into a JPEG stored next to it.
type Thumbnailer struct {
	Binary  string
	Run     CommandRunner
	Timeout time.Duration

	storage storage.Storage
}

// NewThumbnailer constructs a Thumbnailer that shells out to ffmpeg.
func NewThumbnailer(store storage.Storage, binary string, timeout time.Duration) *Thumbnailer {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Thumbnailer{
		Binary:  binary,
		Run:     defaultCommandRunner,
		Timeout: timeout,
		storage: store,
	}
}

// Generate renders the thumbnail for the video stored at p and returns the thumbnail path.
func (t *Thumbnailer) Generate(ctx context.Context, p string) (string, error) {
	if t.Run == nil {
		t.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "oyt-thumbnail-*")
	if err != nil {
		return "", fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "input"+path.Ext(p))
	if err := t.download(execCtx, p, input); err != nil {
		return "", err
	}

	output := filepath.Join(dir, "thumbnail.jpg")
	out, err := t.Run(execCtx, t.Binary, "-i", input, "-ss", "00:00:00.000", "-vframes", "1", output)
	if err != nil {
		return "", fmt.Errorf("ffmpeg thumbnail: %w: %s", err, strings.TrimSpace(string(out)))
	}

	f, err := os.Open(output)
	if err != nil {
		return "", fmt.Errorf("open rendered thumbnail: %w", err)
	}
	defer f.Close()

	saved, err := t.storage.Save(execCtx, p+ThumbnailSuffix, f)
	if err != nil {
		return "", fmt.Errorf("store thumbnail: %w", err)
	}
	return saved, nil
}

func (t *Thumbnailer) download(ctx context.Context, p, dst string) error {
	src, err := t.storage.Open(ctx, p)
	if err != nil {
		return fmt.Errorf("open video %s: %w", p, err)
	}
	defer src.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create local copy: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return fmt.Errorf("copy video %s: %w", p, err)
	}
	return f.Close()
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.CombinedOutput()
}
