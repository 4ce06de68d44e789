package domain

// LinkMetadata is a best-effort preview of an external page.
type LinkMetadata struct {
	URL         string  `json:"url"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Domain      string  `json:"domain"`
}
