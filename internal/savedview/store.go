package savedview

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when no view exists under an id.
var ErrNotFound = errors.New("saved view not found")

// View is a named, persisted app state.
type View struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description,omitempty"`
	State       string    `yaml:"state"`
	Updated     time.Time `yaml:"updated"`
}

// FileStore keeps one YAML file per view in a directory.
type FileStore struct {
	dir   string
	now   func() time.Time
	newID func() string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:   dir,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

// Save writes v, assigning an id when it has none, and returns the stored
// view.
func (s *FileStore) Save(ctx context.Context, v View) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	if v.ID == "" {
		v.ID = s.newID()
	} else if _, err := uuid.Parse(v.ID); err != nil {
		return View{}, fmt.Errorf("save view: invalid id %q", v.ID)
	}
	if strings.TrimSpace(v.Title) == "" {
		return View{}, errors.New("save view: title is required")
	}
	v.Updated = s.now().UTC().Truncate(time.Second)

	data, err := yaml.Marshal(v)
	if err != nil {
		return View{}, fmt.Errorf("encode view: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return View{}, fmt.Errorf("create views dir: %w", err)
	}
	path := s.path(v.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return View{}, fmt.Errorf("write view: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return View{}, fmt.Errorf("replace view: %w", err)
	}
	return v, nil
}

// Load reads the view stored under id.
func (s *FileStore) Load(ctx context.Context, id string) (View, error) {
	if err := ctx.Err(); err != nil {
		return View{}, err
	}
	if _, err := uuid.Parse(id); err != nil {
		return View{}, fmt.Errorf("load view %q: %w", id, ErrNotFound)
	}
	return s.read(s.path(id))
}

// List returns every stored view, most recently updated first.
func (s *FileStore) List(ctx context.Context) ([]View, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list views: %w", err)
	}
	var views []View
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yaml" {
			continue
		}
		v, err := s.read(filepath.Join(s.dir, e.Name()))
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	sort.SliceStable(views, func(i, j int) bool { return views[i].Updated.After(views[j].Updated) })
	return views, nil
}

// Delete removes the view stored under id.
func (s *FileStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("delete view %q: %w", id, ErrNotFound)
	}
	err := os.Remove(s.path(id))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete view %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete view: %w", err)
	}
	return nil
}

func (s *FileStore) path(id string) string {
	return filepath.Join(s.dir, id+".yaml")
}

func (s *FileStore) read(path string) (View, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return View{}, fmt.Errorf("load view %s: %w", strings.TrimSuffix(filepath.Base(path), ".yaml"), ErrNotFound)
	}
	if err != nil {
		return View{}, fmt.Errorf("read view: %w", err)
	}
	var v View
	if err := yaml.Unmarshal(data, &v); err != nil {
		return View{}, fmt.Errorf("decode view %s: %w", filepath.Base(path), err)
	}
	return v, nil
}
