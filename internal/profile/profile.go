// Package profile aggregates an author's posts into profile statistics.
package profile

import (
	"penloft/internal/feed"
	"penloft/internal/models"
)

// Stats summarizes an author's published posts.
type Stats struct {
	PostCount  int `json:"post_count"`
	TotalLikes int `json:"total_likes"`
}

// Profile is an author together with their posts, newest first.
type Profile struct {
	User  models.User   `json:"user"`
	Posts []models.Post `json:"posts"`
	Stats Stats         `json:"stats"`
}

// AggregateUserStats counts posts and sums their likes.
func AggregateUserStats(posts []models.Post) Stats {
	stats := Stats{PostCount: len(posts)}
	for _, p := range posts {
		stats.TotalLikes += p.Likes
	}
	return stats
}

// Build assembles the profile view for user.
func Build(user models.User, posts []models.Post) Profile {
	return Profile{
		User:  user,
		Posts: feed.SortByRecency(posts),
		Stats: AggregateUserStats(posts),
	}
}
