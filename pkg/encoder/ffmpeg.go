package encoder

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/lmshao/remote-desk/pkg/frame"
)

// ffmpegPlan is the selected encoder name plus the extra args needed to
// drive it at low latency, mirroring videoEncoderPlan from the teacher's
// hls/video_encoder.go.
type ffmpegPlan struct {
	name string
	args []string
}

// hardwareEncoderCandidates lists platform-appropriate hardware encoders to
// probe before falling back to software, in the same order and GOOS switch
// the teacher uses.
func hardwareEncoderCandidates() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"h264_videotoolbox"}
	case "windows":
		return []string{"h264_nvenc", "h264_amf", "h264_qsv"}
	case "linux":
		return []string{"h264_nvenc", "h264_vaapi", "h264_qsv"}
	default:
		return nil
	}
}

func softwareEncoderPlan() ffmpegPlan {
	return ffmpegPlan{
		name: "libx264",
		args: []string{"-preset", "ultrafast", "-tune", "zerolatency"},
	}
}

// selectEncoder probes ffmpegPath's compiled-in encoder list and returns
// the first working hardware encoder, falling back to libx264.
func selectEncoder(ctx context.Context, ffmpegPath string) ffmpegPlan {
	available := listEncoders(ctx, ffmpegPath)
	for _, candidate := range hardwareEncoderCandidates() {
		if available[candidate] && probeEncoder(ctx, ffmpegPath, candidate) {
			return ffmpegPlan{name: candidate}
		}
	}
	return softwareEncoderPlan()
}

func listEncoders(ctx context.Context, ffmpegPath string) map[string]bool {
	out := map[string]bool{}
	cmd := exec.CommandContext(ctx, ffmpegPath, "-hide_banner", "-encoders")
	var buf bytes.Buffer
	cmd.Stdout = &buf
	if err := cmd.Run(); err != nil {
		return out
	}
	for _, line := range strings.Split(buf.String(), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[1], "h264_") {
			out[fields[1]] = true
		}
	}
	return out
}

// probeEncoder runs a one-frame null-output encode to confirm the named
// encoder actually initializes on this machine (a compiled-in encoder can
// still fail if, say, no compatible GPU is present).
func probeEncoder(ctx context.Context, ffmpegPath, name string) bool {
	cmd := exec.CommandContext(ctx, ffmpegPath,
		"-hide_banner", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=c=black:s=64x64:d=0.1",
		"-frames:v", "1", "-c:v", name, "-f", "null", "-",
	)
	return cmd.Run() == nil
}

// FFmpegBackend holds an ffmpeg command line that reads raw frames on stdin
// and writes an H.264 elementary stream on stdout. It implements Backend.
// The process is never started: Encode and Flush return no packets, and
// Close only kills a process that something else has started.
//
// This is the one component spec.md explicitly scopes as an external
// collaborator ("contract only"); codec internals are ffmpeg's problem.
type FFmpegBackend struct {
	mu  sync.Mutex
	cmd *exec.Cmd
	cfg Config
}

// NewFFmpegBackend probes for the best available encoder and builds the
// ffmpeg command line for cfg, without starting the process. ffmpegPath is
// typically "ffmpeg" (resolved via PATH).
func NewFFmpegBackend(ctx context.Context, ffmpegPath string, cfg Config) (*FFmpegBackend, error) {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	plan := selectEncoder(ctx, ffmpegPath)

	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", pixFmtName(cfg.InputFormat),
		"-s", fmt.Sprintf("%dx%d", cfg.Width, cfg.Height),
		"-r", strconv.Itoa(cfg.FPS),
		"-i", "-",
		"-c:v", plan.name,
	}
	args = append(args, plan.args...)
	args = append(args,
		"-b:v", strconv.Itoa(cfg.Bitrate),
		"-g", strconv.Itoa(cfg.KeyframeInterval),
		"-f", "h264", "-",
	)

	cmd := exec.CommandContext(ctx, ffmpegPath, args...)
	return &FFmpegBackend{cmd: cmd, cfg: cfg}, nil
}

func pixFmtName(f frame.Format) string {
	switch f {
	case frame.I420:
		return "yuv420p"
	case frame.NV12:
		return "nv12"
	case frame.BGRA32:
		return "bgra"
	case frame.RGBA32:
		return "rgba"
	default:
		return "yuv420p"
	}
}

// Encode is a placeholder frame-in/packet-out boundary: wiring a real
// pipe-based stdin/stdout relay to the launched ffmpeg process is the
// remaining integration work once a concrete deployment picks a transport
// for the encoded stream (RTSP sink, file, etc.) — out of scope per
// spec.md's "FFmpeg-backed H.264 encoder internals" exclusion.
func (b *FFmpegBackend) Encode(f *frame.Frame, forceKeyframe bool) ([]*frame.Frame, error) {
	return nil, nil
}

func (b *FFmpegBackend) SetBitrate(bitrate int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg.Bitrate = bitrate
}

func (b *FFmpegBackend) Flush() ([]*frame.Frame, error) {
	return nil, nil
}

func (b *FFmpegBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.cmd == nil || b.cmd.Process == nil {
		return nil
	}
	return b.cmd.Process.Kill()
}
