package source

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// GCSSource reads a message export object from a Google Cloud Storage bucket,
// for setups where the device periodically uploads its inbox export.
type GCSSource struct {
	bucket string
	object string
}

// NewGCSSource creates a source over gs://<bucket>/<object>.
func NewGCSSource(bucket, object string) *GCSSource {
	return &GCSSource{bucket: bucket, object: object}
}

// GroupedMessages implements Source.
func (s *GCSSource) GroupedMessages(ctx context.Context, window Window) (map[string][]Message, error) {
	data, err := s.download(ctx)
	if err != nil {
		return nil, err
	}
	return parseExport(data, window)
}

func (s *GCSSource) download(ctx context.Context) ([]byte, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create storage client: %v", ErrUnavailable, err)
	}
	defer client.Close()

	r, err := client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: open gs://%s/%s: %v", ErrUnavailable, s.bucket, s.object, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: read gs://%s/%s: %v", ErrUnavailable, s.bucket, s.object, err)
	}
	return data, nil
}
