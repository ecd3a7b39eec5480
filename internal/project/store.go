package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"dubber/internal/logging"
	"dubber/internal/timeline"
)

// ErrNotFound is returned when a named project does not exist.
var ErrNotFound = errors.New("project not found")

// Store persists projects as one JSON document per project. A file lock
// serializes writers across processes.
type Store struct {
	dir    string
	lock   *flock.Flock
	logger *slog.Logger
}

// NewStore opens (creating if needed) a project directory.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create projects directory: %w", err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Store{
		dir:    dir,
		lock:   flock.New(filepath.Join(dir, ".projects.lock")),
		logger: logging.WithComponent(logger, "project"),
	}, nil
}

// Save writes the project document atomically under the store lock.
func (s *Store) Save(p *Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("save project: name required")
	}
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire project lock: %w", err)
	}
	defer s.lock.Unlock()

	p.UpdatedAt = time.Now().UTC()
	encoded, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}

	path := s.pathFor(p.Name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit project: %w", err)
	}
	s.logger.Debug("saved project", logging.String("name", p.Name), logging.String("path", path))
	return nil
}

// Load reads a project by name, upgrading legacy single-video documents.
func (s *Store) Load(name string) (*Project, error) {
	data, err := os.ReadFile(s.pathFor(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return nil, fmt.Errorf("read project: %w", err)
	}
	return decodeDocument(data)
}

// Summary is one row in the project listing.
type Summary struct {
	Name       string
	VideoCount int
	Segments   int
	UpdatedAt  time.Time
}

// List returns a summary for every readable project document, sorted by
// name. Unreadable documents are skipped with a warning.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read projects directory: %w", err)
	}

	var summaries []Summary
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".json")
		proj, err := s.Load(name)
		if err != nil {
			s.logger.Warn("skipping unreadable project", logging.String("file", entry.Name()), logging.Error(err))
			continue
		}
		summaries = append(summaries, Summary{
			Name:       proj.Name,
			VideoCount: len(proj.Videos),
			Segments:   proj.SegmentCount(),
			UpdatedAt:  proj.UpdatedAt,
		})
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	return summaries, nil
}

// Delete removes a project document.
func (s *Store) Delete(name string) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("acquire project lock: %w", err)
	}
	defer s.lock.Unlock()

	if err := os.Remove(s.pathFor(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %q", ErrNotFound, name)
		}
		return fmt.Errorf("delete project: %w", err)
	}
	return nil
}

func (s *Store) pathFor(name string) string {
	return filepath.Join(s.dir, slug(name)+".json")
}

// slug normalizes a project name into a safe filename.
func slug(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}

// legacyDocument is the pre-multi-video project shape: one video path and
// timeline at the top level.
type legacyDocument struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	VideoPath string             `json:"video_path"`
	Timeline  *timeline.Timeline `json:"timeline"`
	Export    ExportPrefs        `json:"export"`
}

// decodeDocument parses a project document, wrapping a legacy single-video
// document as one Video with order 1.
func decodeDocument(data []byte) (*Project, error) {
	var proj Project
	if err := json.Unmarshal(data, &proj); err != nil {
		return nil, fmt.Errorf("decode project: %w", err)
	}
	if len(proj.Videos) > 0 {
		return &proj, nil
	}

	var legacy legacyDocument
	if err := json.Unmarshal(data, &legacy); err != nil || legacy.VideoPath == "" {
		return &proj, nil
	}

	tl := legacy.Timeline
	if tl == nil {
		tl = timeline.NewTimeline(timeline.StreamInfo{})
	}
	aspect := 0.0
	if tl.Height > 0 {
		aspect = math.Round(float64(tl.Width)/float64(tl.Height)*1000) / 1000
	}
	video := &timeline.Video{
		ID:          uuid.NewString(),
		Path:        legacy.VideoPath,
		Order:       1,
		AspectRatio: aspect,
		Orientation: timeline.OrientationFor(aspect),
		HasAudio:    true,
		Timeline:    tl,
	}
	for _, seg := range tl.Segments {
		seg.VideoID = video.ID
	}
	proj.Videos = []*timeline.Video{video}
	if proj.Export == (ExportPrefs{}) {
		proj.Export = legacy.Export
	}
	return &proj, nil
}
