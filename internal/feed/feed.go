// Package feed holds the pure filtering and ordering rules behind the home
// feed, live search and related-post suggestions. Functions never mutate
// their input and always return a non-nil slice.
package feed

import (
	"sort"
	"strings"

	"penloft/internal/models"
)

// DefaultRelatedLimit is the number of related posts shown under a post.
const DefaultRelatedLimit = 3

// minQueryLen is the shortest trimmed query that produces results.
const minQueryLen = 2

// SearchResult is what the live search surface renders.
type SearchResult struct {
	Posts []models.Post `json:"posts"`
	// Open is true when the results surface should be shown.
	Open bool `json:"open"`
}

// FilterBySubstring returns posts whose title contains query, compared
// case-insensitively. Queries shorter than two characters after trimming
// match nothing.
func FilterBySubstring(posts []models.Post, query string) []models.Post {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Post, 0)
	if len([]rune(q)) < minQueryLen {
		return out
	}
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) {
			out = append(out, p)
		}
	}
	return out
}

// Search runs FilterBySubstring and decides whether results are shown.
func Search(posts []models.Post, query string) SearchResult {
	matches := FilterBySubstring(posts, query)
	return SearchResult{Posts: matches, Open: len(matches) > 0}
}

// RelatedPosts returns up to limit posts sharing post's category, excluding
// post itself, in their original order.
func RelatedPosts(post models.Post, all []models.Post, limit int) []models.Post {
	out := make([]models.Post, 0, max(limit, 0))
	if limit <= 0 {
		return out
	}
	for _, p := range all {
		if p.ID == post.ID || p.Category != post.Category {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}

// SortByRecency returns a copy of posts ordered newest first. Posts with
// equal timestamps keep their relative order.
func SortByRecency(posts []models.Post) []models.Post {
	out := make([]models.Post, len(posts))
	copy(out, posts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// FilterByCategory keeps posts in category. An empty category or "All"
// keeps everything.
func FilterByCategory(posts []models.Post, category string) []models.Post {
	if category == "" || strings.EqualFold(category, "all") {
		out := make([]models.Post, len(posts))
		copy(out, posts)
		return out
	}
	out := make([]models.Post, 0)
	for _, p := range posts {
		if strings.EqualFold(string(p.Category), category) {
			out = append(out, p)
		}
	}
	return out
}
