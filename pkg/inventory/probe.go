package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"mediaagent/pkg/exec"
)

// ProbeInfo is the subset of ffprobe output recorded in the inventory.
type ProbeInfo struct {
	DurationSeconds float64
	Codec           string
}

// Prober extracts media facts from one file.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeInfo, error)
}

// FFprobe runs ffprobe through a Runner.
type FFprobe struct {
	runner exec.Runner
	opts   exec.Opts
}

// NewFFprobe creates a prober using runner.
func NewFFprobe(runner exec.Runner) *FFprobe {
	opts := exec.DefaultOpts()
	opts.OutputCap = 0 // truncated JSON does not parse
	return &FFprobe{runner: runner, opts: opts}
}

// Probe runs a single ffprobe JSON call against path.
func (f *FFprobe) Probe(ctx context.Context, path string) (ProbeInfo, error) {
	command := "ffprobe -v quiet -print_format json -show_format -show_streams " + shellQuote(path)

	res, err := f.runner.Run(ctx, command, &f.opts)
	if err != nil {
		return ProbeInfo{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	if res.ExitCode != 0 {
		return ProbeInfo{}, fmt.Errorf("ffprobe %q exited with %d: %s", path, res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return ParseProbeJSON([]byte(res.Stdout))
}

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecName string `json:"codec_name"`
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// ParseProbeJSON converts raw ffprobe JSON output into a ProbeInfo.
// The codec is that of the first video stream, else the first audio stream.
func ParseProbeJSON(data []byte) (ProbeInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return ProbeInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	info := ProbeInfo{DurationSeconds: parseFloat(raw.Format.Duration)}

	var audioCodec string
	for i := range raw.Streams {
		s := &raw.Streams[i]
		if info.DurationSeconds == 0 {
			info.DurationSeconds = parseFloat(s.Duration)
		}
		switch s.CodecType {
		case "video":
			if info.Codec == "" {
				info.Codec = s.CodecName
			}
		case "audio":
			if audioCodec == "" {
				audioCodec = s.CodecName
			}
		}
	}
	if info.Codec == "" {
		info.Codec = audioCodec
	}
	return info, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
