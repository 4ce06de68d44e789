package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/go-journal/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names accepted by Pages.Render.
const (
	PageHome    = "home"
	PagePost    = "post"
	PageArchive = "archive"
	PageAbout   = "about"
	PageMissing = "missing"
)

// PostView is a post prepared for a template.
type PostView struct {
	domain.Post
	Blocks    []Block
	Sources   []template.HTML
	FollowUps []FollowUpView
	Full      bool // individual post page: show followups
}

type FollowUpView struct {
	domain.FollowUp
	Blocks  []Block
	Sources []template.HTML
}

// Data is the value every page template executes against.
type Data struct {
	SiteTitle string
	Title     string
	Posts     []PostView
	Post      *PostView
	Previews  map[string]domain.LinkMetadata
}

type blocksContext struct {
	Blocks   []Block
	Previews map[string]domain.LinkMetadata
}

type postContext struct {
	Post     PostView
	Previews map[string]domain.LinkMetadata
}

var funcs = template.FuncMap{
	"preview": func(previews map[string]domain.LinkMetadata, url string) domain.LinkMetadata {
		if m, ok := previews[url]; ok {
			return m
		}
		return domain.LinkMetadata{URL: url}
	},
	"withPreviews": func(blocks []Block, previews map[string]domain.LinkMetadata) blocksContext {
		return blocksContext{Blocks: blocks, Previews: previews}
	},
	"postWith": func(p PostView, previews map[string]domain.LinkMetadata) postContext {
		return postContext{Post: p, Previews: previews}
	},
}

// Pages holds one parsed template set per page, each sharing the layout.
type Pages struct {
	site  string
	pages map[string]*template.Template
}

func NewPages(siteTitle string) (*Pages, error) {
	p := &Pages{site: siteTitle, pages: map[string]*template.Template{}}
	for _, name := range []string{PageHome, PagePost, PageArchive, PageAbout, PageMissing} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/post_body.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", name, err)
		}
		p.pages[name] = t
	}
	return p, nil
}

// Render executes page into w. SiteTitle is filled in when empty.
func (p *Pages) Render(w io.Writer, page string, data Data) error {
	t, ok := p.pages[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	if data.SiteTitle == "" {
		data.SiteTitle = p.site
	}
	return t.Execute(w, data)
}

// NewPostView prepares p for rendering.
func NewPostView(p domain.Post, full bool) PostView {
	v := PostView{Post: p, Blocks: Blocks(p.Content), Sources: sources(p.Sources), Full: full}
	if full {
		for _, f := range p.FollowUps {
			v.FollowUps = append(v.FollowUps, FollowUpView{FollowUp: f, Blocks: Blocks(f.Content), Sources: sources(f.Sources)})
		}
	}
	return v
}

// PreviewURLs lists preview URLs across the view's content and followups.
func (v PostView) PreviewURLs() []string {
	all := append([]Block{}, v.Blocks...)
	for _, f := range v.FollowUps {
		all = append(all, f.Blocks...)
	}
	return PreviewURLs(all)
}

func sources(in []string) []template.HTML {
	out := make([]template.HTML, len(in))
	for i, s := range in {
		out[i] = Source(s)
	}
	return out
}
