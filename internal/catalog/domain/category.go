package domain

import "strings"

type Category struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	ImageURL     *string `json:"imageUrl"`
	Description  string  `json:"description,omitempty"`
	ProductCount int     `json:"productCount,omitempty"`
}

type SubCategory struct {
	ID         int64  `json:"id"`
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
}

// SearchResults is the /api/search response.
type SearchResults struct {
	Products     []Product  `json:"products"`
	Categories   []Category `json:"categories"`
	TotalResults int        `json:"totalResults"`
}

// SplitTags splits a comma-separated tag string, dropping blanks.
func SplitTags(csv string) []string {
	var tags []string
	for _, t := range strings.Split(csv, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
