package render

import (
	"bytes"
	"html/template"
	"testing"

	"github.com/go-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlocks(t *testing.T) {
	content := "\n  first line\n\tsecond <b>bold</b> & more\n\n  - one\n  - two\n\nhttps://x.com/a/status/1\nafter\r\n- tail\n"

	blocks := Blocks(content)

	require.Len(t, blocks, 5)
	assert.Equal(t, Paragraph, blocks[0].Kind)
	assert.Equal(t, template.HTML("first line\nsecond <b>bold</b> &amp; more"), blocks[0].Text)
	assert.Equal(t, List, blocks[1].Kind)
	assert.Equal(t, []template.HTML{"one", "two"}, blocks[1].Items)
	assert.Equal(t, Preview, blocks[2].Kind)
	assert.Equal(t, "https://x.com/a/status/1", blocks[2].URL)
	assert.Equal(t, template.HTML("after"), blocks[3].Text)
	assert.Equal(t, []template.HTML{"tail"}, blocks[4].Items)
}

func TestBlocks_EscapesMarkup(t *testing.T) {
	blocks := Blocks(`<script>alert("x")</script>`)
	require.Len(t, blocks, 1)
	assert.NotContains(t, string(blocks[0].Text), "<script>")
}

func TestBlocks_InlineTagsStayBalanced(t *testing.T) {
	cases := []struct {
		in   string
		want template.HTML
	}{
		{"a <b>bold</b> word", "a <b>bold</b> word"},
		{"never closed <em>here", "never closed <em>here</em>"},
		{"<b><i>nested</i></b>", "<b><i>nested</i></b>"},
		{"stray </strong> close", "stray &lt;/strong&gt; close"},
		{"<b>crossed <i>tags</b></i>", "<b>crossed <i>tags&lt;/b&gt;</i></b>"},
	}
	for _, tc := range cases {
		blocks := Blocks(tc.in)
		require.Len(t, blocks, 1, tc.in)
		assert.Equal(t, tc.want, blocks[0].Text, tc.in)
	}
}

func TestBlocks_UnclosedTagEndsWithListItem(t *testing.T) {
	blocks := Blocks("- <strong>first\n- second")
	require.Len(t, blocks, 1)
	assert.Equal(t, []template.HTML{"<strong>first</strong>", "second"}, blocks[0].Items)
}

func TestBlocks_Empty(t *testing.T) {
	assert.Empty(t, Blocks("\n \n\t\n"))
}

func TestSource(t *testing.T) {
	got := Source("im obssessed with these: http://archives.conlang.info/ga/x.html & https://a.example/b")
	assert.Equal(t, template.HTML(
		`im obssessed with these: <a href="http://archives.conlang.info/ga/x.html" target="_blank" rel="noopener noreferrer">http://archives.conlang.info/ga/x.html</a> &amp; `+
			`<a href="https://a.example/b" target="_blank" rel="noopener noreferrer">https://a.example/b</a>`), got)
	assert.Equal(t, template.HTML("plain &lt;note&gt;"), Source("plain <note>"))
}

func TestPreviewURLs_Dedupes(t *testing.T) {
	blocks := Blocks("https://a.example\n\nhttps://b.example\n\nhttps://a.example")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, PreviewURLs(blocks))
}

func TestPages_RenderPost(t *testing.T) {
	pages, err := NewPages("creaturewai")
	require.NoError(t, err)
	title := "A tweet"
	post := domain.Post{
		ID: "2025-12-08", Title: "language is not intelligence", Date: "December 8, 2025", Time: "9:23 AM",
		Location: "at home", Content: "hello\n\nhttps://x.com/a/status/1",
		Sources:   []string{"https://example.com"},
		FollowUps: []domain.FollowUp{{Date: "December 9, 2025", Content: "later thought"}},
	}
	view := NewPostView(post, true)

	var buf bytes.Buffer
	err = pages.Render(&buf, PagePost, Data{
		Title:    post.Title,
		Post:     &view,
		Previews: map[string]domain.LinkMetadata{"https://x.com/a/status/1": {URL: "https://x.com/a/status/1", Title: &title, Domain: "x.com"}},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "language is not intelligence · creaturewai")
	assert.Contains(t, html, "December 8, 2025 · 9:23 AM")
	assert.Contains(t, html, "A tweet")
	assert.Contains(t, html, "later thought")
	assert.Contains(t, html, `href="https://example.com"`)
}

func TestPages_HomeHidesFollowUps(t *testing.T) {
	pages, err := NewPages("creaturewai")
	require.NoError(t, err)
	post := domain.Post{ID: "2025-12-08", Title: "t", Content: "body", FollowUps: []domain.FollowUp{{Content: "hidden followup"}}}

	var buf bytes.Buffer
	require.NoError(t, pages.Render(&buf, PageHome, Data{Posts: []PostView{NewPostView(post, false)}}))

	assert.Contains(t, buf.String(), `href="/post/2025-12-08"`)
	assert.NotContains(t, buf.String(), "hidden followup")
}

func TestPages_ArchiveAndAbout(t *testing.T) {
	pages, err := NewPages("creaturewai")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pages.Render(&buf, PageArchive, Data{Posts: []PostView{NewPostView(domain.Post{ID: "2025-11-24", Title: "first", Date: "November 24, 2025"}, false)}}))
	assert.Contains(t, buf.String(), "November 24, 2025")

	buf.Reset()
	require.NoError(t, pages.Render(&buf, PageAbout, Data{}))
	assert.Contains(t, buf.String(), "easily hangry")

	assert.Error(t, pages.Render(&buf, "nope", Data{}))
}
