// Package probe inspects media files with ffprobe and records the
// technical attributes (codecs, resolution, duration) on each record.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNotMedia means the file exists but ffprobe found no usable
// streams in it.
var ErrNotMedia = errors.New("probe: not a valid media file")

// Result holds the subset of ffprobe output attached to records.
type Result struct {
	Duration        float64
	BitRate         int64
	VideoCodec      string
	Width           int
	Height          int
	FrameRate       float64
	AudioCodec      string
	AudioSampleRate int
	AudioChannels   int
}

// Prober turns a file path into a probe result. The ffprobe-backed
// implementation is FFProbe; tests substitute their own.
type Prober interface {
	ProbeFile(ctx context.Context, path string) (*Result, error)
}

// FFProbe shells out to the ffprobe binary.
type FFProbe struct {
	binary string
}

// New creates an ffprobe-backed prober. An empty binary means the
// ffprobe found on PATH.
func New(binary string) *FFProbe {
	if binary == "" {
		binary = "ffprobe"
	}
	return &FFProbe{binary: binary}
}

// ProbeFile runs one ffprobe JSON call against path.
func (p *FFProbe) ProbeFile(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probe: ffprobe %q: %w", path, err)
	}
	return ParseJSON(out)
}

// ffprobe JSON wire types.

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
	BitRate  string `json:"bit_rate"`
}

type ffprobeStream struct {
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	Channels     int    `json:"channels"`
	SampleRate   string `json:"sample_rate"`
}

// ParseJSON converts raw ffprobe JSON output into a Result. Exported so
// tests can run without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("probe: parse ffprobe JSON: %w", err)
	}
	if len(raw.Streams) == 0 {
		return nil, ErrNotMedia
	}

	res := &Result{
		Duration: parseFloat(raw.Format.Duration),
		BitRate:  parseInt64(raw.Format.BitRate),
	}
	for _, s := range raw.Streams {
		switch s.CodecType {
		case "video":
			if res.VideoCodec != "" {
				continue
			}
			res.VideoCodec = s.CodecName
			res.Width = s.Width
			res.Height = s.Height
			res.FrameRate = parseFrameRate(s.AvgFrameRate)
		case "audio":
			if res.AudioCodec != "" {
				continue
			}
			res.AudioCodec = s.CodecName
			res.AudioChannels = s.Channels
			res.AudioSampleRate = int(parseInt64(s.SampleRate))
		}
	}
	if res.VideoCodec == "" {
		return nil, ErrNotMedia
	}
	return res, nil
}

// parseFrameRate evaluates ffprobe's "num/den" rational form.
func parseFrameRate(raw string) float64 {
	num, den, found := strings.Cut(raw, "/")
	if !found {
		return parseFloat(raw)
	}
	n := parseFloat(num)
	d := parseFloat(den)
	if d == 0 {
		return 0
	}
	return n / d
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
