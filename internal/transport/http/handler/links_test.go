package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-journal/internal/application/linkpreview"
	"github.com/go-journal/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockFetcher struct{ mock.Mock }

func (m *mockFetcher) Fetch(ctx context.Context, url string) (domain.LinkMetadata, error) {
	args := m.Called(ctx, url)
	return args.Get(0).(domain.LinkMetadata), args.Error(1)
}

func (m *mockFetcher) FetchAll(ctx context.Context, urls []string) map[string]domain.LinkMetadata {
	args := m.Called(ctx, urls)
	out, _ := args.Get(0).(map[string]domain.LinkMetadata)
	return out
}

func TestMetadata_MissingURL(t *testing.T) {
	rr := httptest.NewRecorder()
	NewLinkHandler(&mockFetcher{}).Metadata(rr, httptest.NewRequest(http.MethodGet, "/api/link-metadata", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestMetadata_InvalidURL(t *testing.T) {
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, "ftp://x").Return(domain.LinkMetadata{}, linkpreview.ErrInvalidURL)

	rr := httptest.NewRecorder()
	NewLinkHandler(f).Metadata(rr, httptest.NewRequest(http.MethodGet, "/api/link-metadata?url=ftp://x", nil))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"Invalid URL"}`, rr.Body.String())
}

func TestMetadata_OK(t *testing.T) {
	title := "Example"
	f := &mockFetcher{}
	f.On("Fetch", mock.Anything, "https://example.com/a").
		Return(domain.LinkMetadata{URL: "https://example.com/a", Title: &title, Domain: "example.com"}, nil)

	rr := httptest.NewRecorder()
	NewLinkHandler(f).Metadata(rr, httptest.NewRequest(http.MethodGet, "/api/link-metadata?url=https%3A%2F%2Fexample.com%2Fa", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"url":"https://example.com/a","title":"Example","description":null,"domain":"example.com"}`, rr.Body.String())
}
