package probe

import (
	"context"
	"errors"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/mkrastev/videman/pkg/core/pipeline"
	"github.com/mkrastev/videman/pkg/core/record"
	"github.com/mkrastev/videman/pkg/core/settings"
)

// Reader drives a Prober over records and flattens the results into
// their extra attributes.
type Reader struct {
	settings *settings.Settings
	prober   Prober
	logger   *log.Logger
}

// NewReader creates a reader. A nil prober gets the default ffprobe
// implementation.
func NewReader(s *settings.Settings, prober Prober, logger *log.Logger) *Reader {
	if prober == nil {
		prober = New("")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Reader{settings: s, prober: prober, logger: logger}
}

// ReadFor probes one record's file. A file ffprobe cannot make sense of
// passes through unchanged; other probe failures are errors.
func (r *Reader) ReadFor(ctx context.Context, rec record.Record) (record.Record, error) {
	res, err := r.prober.ProbeFile(ctx, rec.Filename)
	if errors.Is(err, ErrNotMedia) {
		r.logger.Warnf("probe: %s: %v", rec.Filename, err)
		return rec.Clone(), nil
	}
	if err != nil {
		return rec.Clone(), err
	}

	out := rec.Clone()
	if out.Extra == nil {
		out.Extra = make(map[string]string, 9)
	}
	out.Extra["duration"] = strconv.FormatFloat(res.Duration, 'f', -1, 64)
	out.Extra["bitrate"] = strconv.FormatInt(res.BitRate, 10)
	out.Extra["video_codec"] = res.VideoCodec
	out.Extra["width"] = strconv.Itoa(res.Width)
	out.Extra["height"] = strconv.Itoa(res.Height)
	out.Extra["frame_rate"] = strconv.FormatFloat(res.FrameRate, 'f', 3, 64)
	if res.AudioCodec != "" {
		out.Extra["audio_codec"] = res.AudioCodec
		out.Extra["audio_channels"] = strconv.Itoa(res.AudioChannels)
		out.Extra["audio_sample_rate"] = strconv.Itoa(res.AudioSampleRate)
	}
	return out, nil
}

// ReadAll probes every record through the worker pool, isolating
// per-record failures.
func (r *Reader) ReadAll(ctx context.Context, records []record.Record, onProgress func(pipeline.Snapshot)) ([]record.Record, error) {
	concurrency := r.settings.Int("metadata_concurrency", 8)
	out, batchErr := pipeline.Run(records, concurrency, func(rec record.Record) (record.Record, error) {
		updated, err := r.ReadFor(ctx, rec)
		if err != nil {
			r.logger.Warnf("probe: %s: %v", rec.Filename, err)
		}
		return updated, err
	}, onProgress)
	if batchErr != nil {
		return out, batchErr
	}
	return out, nil
}
