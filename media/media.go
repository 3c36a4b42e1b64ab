package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/vidprofile/ai"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/logger"
	"github.com/kbukum/vidprofile/process"
	"github.com/kbukum/vidprofile/provider"
)

// ErrNoAudioStream is the cause reported for a video without an audio track.
var ErrNoAudioStream = errors.New("media: video has no audio stream")

// Extractor turns a video into a transcription-ready audio track.
type Extractor interface {
	ExtractAudio(ctx context.Context, videoPath string) (ai.Audio, error)
	// Cleanup removes the file behind audio. Missing files are not an error.
	Cleanup(audio ai.Audio) error
}

// Config configures the ffmpeg extractor.
type Config struct {
	// Binary is the ffmpeg executable. Defaults to "ffmpeg".
	Binary string `yaml:"binary" mapstructure:"binary"`
	// TempDir receives extracted audio. Defaults to os.TempDir().
	TempDir string `yaml:"temp_dir" mapstructure:"temp_dir"`
	// SampleRate in Hz. Defaults to 16000.
	SampleRate int `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=192000"`
	// Channels defaults to 1.
	Channels int `yaml:"channels" mapstructure:"channels" validate:"gte=0,lte=8"`
	// Timeout bounds one extraction. Defaults to 5m.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// GracePeriod is the SIGTERM to SIGKILL delay on cancellation.
	GracePeriod time.Duration `yaml:"grace_period" mapstructure:"grace_period"`
}

// ApplyDefaults fills zero fields.
func (c *Config) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = "ffmpeg"
	}
	if c.TempDir == "" {
		c.TempDir = os.TempDir()
	}
	if c.SampleRate <= 0 {
		c.SampleRate = 16000
	}
	if c.Channels <= 0 {
		c.Channels = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Minute
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = 2 * time.Second
	}
}

// FFmpeg extracts 16-bit PCM WAV audio with an ffmpeg subprocess.
type FFmpeg struct {
	cfg    Config
	runner *process.Runner
	log    *logger.Logger
}

var _ Extractor = (*FFmpeg)(nil)

// NewFFmpeg creates an extractor. The temp dir is created if missing.
func NewFFmpeg(cfg Config, log *logger.Logger) (*FFmpeg, error) {
	cfg.ApplyDefaults()
	if err := os.MkdirAll(cfg.TempDir, 0o750); err != nil {
		return nil, fmt.Errorf("media: temp dir: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &FFmpeg{
		cfg: cfg,
		runner: process.NewRunner(process.Config{
			Name:        "ffmpeg",
			GracePeriod: cfg.GracePeriod,
			Timeout:     cfg.Timeout,
		}, provider.ResilienceConfig{}),
		log: log.WithComponent("media"),
	}, nil
}

// Name returns "ffmpeg".
func (f *FFmpeg) Name() string { return "ffmpeg" }

// IsAvailable reports whether the ffmpeg binary resolves.
func (f *FFmpeg) IsAvailable(_ context.Context) bool { return process.Available(f.cfg.Binary) }

// ExtractAudio writes the audio track of videoPath to a new WAV file.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath string) (ai.Audio, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return ai.Audio{}, goerrors.InvalidInput("video", "cannot read "+videoPath).WithCause(err)
	}

	out := filepath.Join(f.cfg.TempDir, "audio-"+uuid.NewString()+".wav")
	res, err := f.runner.Run(ctx, process.Command{
		Binary: f.cfg.Binary,
		Args: []string{
			"-nostdin", "-y",
			"-i", videoPath,
			"-vn",
			"-acodec", "pcm_s16le",
			"-ar", strconv.Itoa(f.cfg.SampleRate),
			"-ac", strconv.Itoa(f.cfg.Channels),
			out,
		},
	})
	if err != nil {
		_ = os.Remove(out)
		return ai.Audio{}, f.extractError(ctx, err)
	}

	f.log.Debug("audio extracted", logger.Fields(
		"video", filepath.Base(videoPath),
		"audio", out,
		logger.FieldDuration, res.Duration.Milliseconds(),
	))
	return ai.Audio{Path: out, SampleRate: f.cfg.SampleRate, Channels: f.cfg.Channels}, nil
}

// Cleanup removes the extracted file.
func (f *FFmpeg) Cleanup(audio ai.Audio) error {
	if audio.Path == "" {
		return nil
	}
	if err := os.Remove(audio.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("media: cleanup: %w", err)
	}
	return nil
}

func (f *FFmpeg) extractError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, process.ErrNotFound):
		return goerrors.ServiceUnavailable("ffmpeg").WithCause(err)
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Timeout("audio extraction").WithCause(err)
	}

	var exitErr *process.ExitError
	if errors.As(err, &exitErr) && noAudio(exitErr.Stderr) {
		return goerrors.InvalidInput("video", "the video has no audio stream").WithCause(ErrNoAudioStream)
	}
	return goerrors.ExternalServiceError("ffmpeg", err)
}

// noAudio matches the ffmpeg diagnostics for a missing audio track.
func noAudio(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "does not contain any stream") ||
		strings.Contains(s, "matches no streams") ||
		strings.Contains(s, "output file is empty")
}
