package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// MediaProber verifies media URIs against the bucket. It satisfies
// playback.Prober: Probe returns the track duration from the object's
// ingest metadata, or 0 when the object carries none.
type MediaProber struct{}

// NewMediaProber creates a prober backed by the initialized MinIO client.
func NewMediaProber() *MediaProber {
	return &MediaProber{}
}

// Probe stats the object behind a /media/{key} URI.
func (p *MediaProber) Probe(ctx context.Context, uri string) (float64, error) {
	key := strings.TrimPrefix(uri, "/media/")
	if key == "" || key == uri {
		return 0, fmt.Errorf("unrecognized media URI %q", uri)
	}

	info, err := StatObject(ctx, key)
	if err != nil {
		return 0, err
	}

	if raw, ok := info.Metadata[durationMetaKey]; ok && len(raw) > 0 {
		duration, err := strconv.ParseFloat(raw[0], 64)
		if err == nil && duration > 0 {
			return duration, nil
		}
	}
	return 0, nil
}
