package post

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/pkg/validate"
	"gopkg.in/yaml.v3"
)

// File is one raw post file. Path is relative to the source root, using
// forward slashes, e.g. "2025/12/8.yaml".
type File struct {
	Path    string
	ModTime time.Time
	Data    []byte
}

// Source loads every post file from wherever posts are kept.
type Source interface {
	Load(ctx context.Context) ([]File, error)
}

type Service interface {
	All() []domain.Post
	Get(id string) (*domain.Post, error)
	Reload(ctx context.Context) (int, error)
}

var pathPattern = regexp.MustCompile(`(?:^|/)(\d{4})/(\d{1,2})/(\d{1,2})\.ya?ml$`)

// rawPost is what authors write; id and date come from the file path.
type rawPost struct {
	Title     string            `yaml:"title" validate:"required"`
	Time      string            `yaml:"time"`
	Location  string            `yaml:"location"`
	Content   string            `yaml:"content"`
	Sources   []string          `yaml:"sources"`
	FollowUps []domain.FollowUp `yaml:"followups"`
}

// Catalog keeps every post in memory, newest first.
type Catalog struct {
	source Source

	mu    sync.RWMutex
	posts []domain.Post
	byID  map[string]int
}

func NewCatalog(source Source) *Catalog {
	return &Catalog{source: source, byID: map[string]int{}}
}

// Reload replaces the catalog with the current contents of the source.
// Files that fail to parse are logged and skipped; on a source error the
// previous catalog is kept.
func (c *Catalog) Reload(ctx context.Context) (int, error) {
	files, err := c.source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load posts: %w", err)
	}

	posts := make([]domain.Post, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		p, err := Parse(f)
		if err != nil {
			slog.Warn("skipping post file", "path", f.Path, "err", err)
			continue
		}
		if prev, dup := seen[p.ID]; dup {
			slog.Warn("duplicate post date", "id", p.ID, "path", f.Path, "kept", prev)
			continue
		}
		seen[p.ID] = f.Path
		posts = append(posts, *p)
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PublishedOn.After(posts[j].PublishedOn)
	})

	byID := make(map[string]int, len(posts))
	for i, p := range posts {
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.posts, c.byID = posts, byID
	c.mu.Unlock()
	return len(posts), nil
}

// All returns every post, newest first. The slice is a copy.
func (c *Catalog) All() []domain.Post {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Post, len(c.posts))
	copy(out, c.posts)
	return out
}

func (c *Catalog) Get(id string) (*domain.Post, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return nil, fmt.Errorf("post %q: %w", id, domain.ErrNotFound)
	}
	p := c.posts[i]
	return &p, nil
}

// Parse decodes a post file and derives id, date and publication day from
// its path. A missing time falls back to the file modification time.
func Parse(f File) (*domain.Post, error) {
	day, err := dayFromPath(f.Path)
	if err != nil {
		return nil, err
	}
	var raw rawPost
	if err := yaml.Unmarshal(f.Data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if err := validate.Struct(raw); err != nil {
		return nil, err
	}
	t := raw.Time
	if t == "" && !f.ModTime.IsZero() {
		t = f.ModTime.Format("3:04 PM")
	}
	return &domain.Post{
		ID:          day.Format("2006-01-02"),
		Title:       raw.Title,
		Date:        day.Format("January 2, 2006"),
		Time:        t,
		Location:    raw.Location,
		Content:     raw.Content,
		Sources:     raw.Sources,
		FollowUps:   raw.FollowUps,
		PublishedOn: day,
	}, nil
}

func dayFromPath(path string) (time.Time, error) {
	m := pathPattern.FindStringSubmatch(path)
	if m == nil {
		return time.Time{}, fmt.Errorf("path %q is not YYYY/M/D.yaml", path)
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	day := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if day.Year() != y || int(day.Month()) != mo || day.Day() != d {
		return time.Time{}, fmt.Errorf("path %q is not a calendar date", path)
	}
	return day, nil
}
