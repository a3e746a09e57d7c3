package viewer

import (
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Encoder describes how ffmpeg should encode the raw frames a FrameSink writes.
type Encoder struct {
	Width, Height int
	FPS           int
	Output        string

	Software bool
	// Device is the VA-API render node tried on Linux.
	Device  string
	Bitrate string
	Debug   bool
}

// Codec picks the video codec: hardware encoders where available unless Software is set.
func (e Encoder) Codec() string {
	if e.Software {
		return "libx264"
	}
	switch runtime.GOOS {
	case "darwin":
		return "h264_videotoolbox"
	case "linux":
		if e.Device == "" {
			return "libx264"
		}
		f, err := os.OpenFile(e.Device, os.O_RDWR, 0)
		if err != nil {
			if e.Debug {
				log.Printf("[RECORDER] Render device %s unusable: %v", e.Device, err)
			}
			return "libx264"
		}
		_ = f.Close()
		return "h264_vaapi"
	}
	return "libx264"
}

// Args builds the ffmpeg argument list reading rgba frames from stdin.
func (e Encoder) Args(vcodec string) []string {
	fps := e.FPS
	if fps <= 0 {
		fps = 30
	}
	bitrate := e.Bitrate
	if bitrate == "" {
		bitrate = "9000k"
	}

	var args []string
	if e.Debug {
		args = append(args, "-loglevel", "debug")
	} else {
		args = append(args, "-loglevel", "warning")
	}
	if vcodec == "h264_vaapi" {
		args = append(args, "-vaapi_device", e.Device)
	}
	args = append(args,
		"-y",
		"-f", "rawvideo", "-pixel_format", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", e.Width, e.Height),
		"-framerate", fmt.Sprint(fps), "-i", "pipe:0",
		"-c:v", vcodec,
		"-b:v", bitrate,
		"-g", fmt.Sprint(fps*2),
	)
	switch vcodec {
	case "h264_vaapi":
		args = append(args, "-vf", "format=nv12,hwupload")
	case "libx264":
		args = append(args, "-pix_fmt", "yuv420p", "-preset", "veryfast", "-crf", "18")
	default:
		args = append(args, "-pix_fmt", "yuv420p")
	}
	if strings.HasSuffix(e.Output, ".mp4") {
		args = append(args, "-movflags", "+faststart")
	}
	if strings.HasPrefix(e.Output, "rtmp://") || strings.HasPrefix(e.Output, "rtmps://") || strings.HasSuffix(e.Output, ".flv") {
		args = append(args, "-f", "flv")
	}
	return append(args, e.Output)
}

// Command returns the ffmpeg process for this encoder, with stderr passed through.
func (e Encoder) Command() *exec.Cmd {
	vcodec := e.Codec()
	log.Printf("[RECORDER] Encoding %dx%d with %s to %s", e.Width, e.Height, vcodec, e.Output)
	cmd := exec.Command("ffmpeg", e.Args(vcodec)...)
	cmd.Stderr = os.Stderr
	return cmd
}
