package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	files []File
	err   error
}

func (s *staticSource) Load(context.Context) ([]File, error) { return s.files, s.err }

const langPost = `
title: language is not intelligence
time: "9:23 AM"
location: at home
content: |
  it's true that language encodes many forms of our intelligence.
  - angle 1
sources:
  - https://en.wikipedia.org/wiki/Colorless_green_ideas_sleep_furiously
followups:
  - date: December 9, 2025
    content: more on world models
`

func TestParse_DerivesIDAndDateFromPath(t *testing.T) {
	p, err := Parse(File{Path: "2025/12/8.yaml", Data: []byte(langPost)})

	require.NoError(t, err)
	assert.Equal(t, "2025-12-08", p.ID)
	assert.Equal(t, "December 8, 2025", p.Date)
	assert.Equal(t, "9:23 AM", p.Time)
	assert.Equal(t, "language is not intelligence", p.Title)
	assert.Len(t, p.Sources, 1)
	require.Len(t, p.FollowUps, 1)
	assert.Equal(t, "more on world models", p.FollowUps[0].Content)
}

func TestParse_TimeFallsBackToModTime(t *testing.T) {
	mod := time.Date(2025, 11, 24, 15, 4, 0, 0, time.UTC)
	p, err := Parse(File{Path: "posts/2025/11/24.yml", ModTime: mod, Data: []byte("title: t\n")})

	require.NoError(t, err)
	assert.Equal(t, "3:04 PM", p.Time)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]File{
		"template":     {Path: "template.yaml", Data: []byte("title: t")},
		"bad date":     {Path: "2025/2/30.yaml", Data: []byte("title: t")},
		"no title":     {Path: "2025/2/3.yaml", Data: []byte("location: x")},
		"invalid yaml": {Path: "2025/2/3.yaml", Data: []byte("title: [")},
	}
	for name, f := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(f)
			assert.Error(t, err)
		})
	}
}

func TestCatalog_ReloadSortsNewestFirst(t *testing.T) {
	src := &staticSource{files: []File{
		{Path: "2025/11/24.yaml", Data: []byte("title: first")},
		{Path: "2026/1/11.yaml", Data: []byte("title: newest")},
		{Path: "2025/12/8.yaml", Data: []byte("title: middle")},
		{Path: "2025/12/08.yaml", Data: []byte("title: duplicate")},
		{Path: "template.yaml", Data: []byte("title: skipped")},
	}}
	c := NewCatalog(src)

	n, err := c.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	all := c.All()
	require.Len(t, all, 3)
	assert.Equal(t, []string{"2026-01-11", "2025-12-08", "2025-11-24"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, "middle", all[1].Title)

	got, err := c.Get("2025-11-24")
	require.NoError(t, err)
	assert.Equal(t, "first", got.Title)

	_, err = c.Get("2024-01-01")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCatalog_SourceErrorKeepsPrevious(t *testing.T) {
	src := &staticSource{files: []File{{Path: "2025/12/8.yaml", Data: []byte("title: kept")}}}
	c := NewCatalog(src)
	_, err := c.Reload(context.Background())
	require.NoError(t, err)

	src.err = errors.New("bucket unavailable")
	_, err = c.Reload(context.Background())
	require.Error(t, err)
	assert.Len(t, c.All(), 1)
}
