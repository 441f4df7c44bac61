package source

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// export is the on-disk shape of a message export file.
type export struct {
	Messages []Message `json:"messages"`
}

// FileSource reads messages from a local JSON export of the device inbox.
type FileSource struct {
	path string
}

// NewFileSource creates a source over the export file at path. The file is
// read on every call so a re-scan picks up a refreshed export.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// GroupedMessages implements Source.
func (s *FileSource) GroupedMessages(ctx context.Context, window Window) (map[string][]Message, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading export %s: %v", ErrUnavailable, s.path, err)
	}
	return parseExport(data, window)
}

func parseExport(data []byte, window Window) (map[string][]Message, error) {
	var ex export
	if err := json.Unmarshal(data, &ex); err != nil {
		return nil, fmt.Errorf("%w: malformed export: %v", ErrUnavailable, err)
	}
	return group(ex.Messages, window), nil
}
