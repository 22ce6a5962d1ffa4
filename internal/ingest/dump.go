package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"momo-vod/internal/models"
)

// ErrInvalidDump marks a dump that can never be imported as-is. Such dumps
// are moved to rejected/ instead of being retried.
var ErrInvalidDump = errors.New("invalid comment dump")

// Dump is a batch of comments exported from an external source for one
// episode.
type Dump struct {
	EpisodeID string        `json:"episode_id" yaml:"episode_id"`
	Comments  []DumpComment `json:"comments" yaml:"comments"`
}

type DumpComment struct {
	AuthorID    string `json:"author_id" yaml:"author_id"`
	Body        string `json:"body" yaml:"body"`
	TimestampMs int64  `json:"timestamp_ms" yaml:"timestamp_ms"`
}

// IsSupportedFormat reports whether key looks like a dump the worker can
// parse. Other objects are left in the queue untouched.
func IsSupportedFormat(key string) bool {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// ParseDump decodes data according to the extension of name and validates
// the result.
func ParseDump(name string, data []byte) (*Dump, error) {
	var d Dump
	var err error
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		err = json.Unmarshal(data, &d)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &d)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidDump, filepath.Ext(name))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDump, err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the same rules the API applies to live comments.
func (d *Dump) Validate() error {
	if strings.TrimSpace(d.EpisodeID) == "" {
		return fmt.Errorf("%w: episode_id is required", ErrInvalidDump)
	}
	if len(d.Comments) == 0 {
		return fmt.Errorf("%w: no comments", ErrInvalidDump)
	}
	for i, c := range d.Comments {
		body := strings.TrimSpace(c.Body)
		switch {
		case body == "":
			return fmt.Errorf("%w: comment %d: body is required", ErrInvalidDump, i)
		case utf8.RuneCountInString(body) > models.MaxCommentRunes:
			return fmt.Errorf("%w: comment %d: body is too long", ErrInvalidDump, i)
		case c.TimestampMs < 0:
			return fmt.Errorf("%w: comment %d: negative timestamp_ms", ErrInvalidDump, i)
		}
	}
	return nil
}
