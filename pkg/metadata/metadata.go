// Package metadata writes JSON sidecars next to downloaded media files.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"instapi/pkg/models"
	"instapi/pkg/storage"
)

// Ext is appended to a media file's path to name its sidecar.
const Ext = ".json"

// Sidecar describes one downloaded rendition.
type Sidecar struct {
	Owner        Owner     `json:"owner"`
	Kind         string    `json:"kind"`
	URL          string    `json:"url"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	FileSize     int64     `json:"file_size,omitempty"`
	DownloadedAt time.Time `json:"downloaded_at"`
}

// Owner is the account the media was listed from.
type Owner struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// FromResource describes the best rendition of r.
func FromResource(owner models.User, r models.Resource, fileSize int64) *Sidecar {
	best := r.Best()
	return &Sidecar{
		Owner:        Owner{ID: owner.ID(), Username: owner.Username},
		Kind:         r.Kind().String(),
		URL:          best.URL,
		Width:        best.Width,
		Height:       best.Height,
		FileSize:     fileSize,
		DownloadedAt: time.Now().UTC(),
	}
}

// Save writes the sidecar for the media file at mediaPath, replacing any
// previous one.
func (s *Sidecar) Save(mediaPath string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := storage.WriteAtomic(mediaPath+Ext, bytes.NewReader(data), 0644); err != nil {
		return fmt.Errorf("failed to write metadata file: %w", err)
	}
	return nil
}

// Load reads the sidecar of the media file at mediaPath.
func Load(mediaPath string) (*Sidecar, error) {
	data, err := os.ReadFile(mediaPath + Ext)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata file: %w", err)
	}
	var s Sidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &s, nil
}

// Exists reports whether mediaPath has a sidecar.
func Exists(mediaPath string) bool {
	_, err := os.Stat(mediaPath + Ext)
	return err == nil
}

// AspectRatio names common ratios and falls back to "w:1".
func (s *Sidecar) AspectRatio() string {
	if s.Height == 0 {
		return "unknown"
	}
	ratio := float64(s.Width) / float64(s.Height)
	switch {
	case ratio > 1.7 && ratio < 1.8:
		return "16:9"
	case ratio > 1.3 && ratio < 1.4:
		return "4:3"
	case ratio > 0.9 && ratio < 1.1:
		return "1:1"
	case ratio > 0.55 && ratio < 0.57:
		return "9:16"
	case ratio > 0.79 && ratio < 0.81:
		return "4:5"
	default:
		return fmt.Sprintf("%.2f:1", ratio)
	}
}

// CleanOrphaned removes sidecars in dir whose media file is gone and returns
// how many were removed.
func CleanOrphaned(dir string) (int, error) {
	removed := 0
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, Ext) {
			return nil
		}
		if _, err := os.Stat(strings.TrimSuffix(path, Ext)); !os.IsNotExist(err) {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove orphaned metadata %s: %w", path, err)
		}
		removed++
		return nil
	})
	return removed, err
}
