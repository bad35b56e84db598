package profile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"penloft/internal/models"
)

func TestAggregateUserStats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		posts []models.Post
		want  Stats
	}{
		{"nil", nil, Stats{}},
		{"empty", []models.Post{}, Stats{}},
		{"seeded author", []models.Post{{Likes: 128}, {Likes: 150}}, Stats{PostCount: 2, TotalLikes: 278}},
		{"zero likes", []models.Post{{Likes: 0}, {Likes: 0}, {Likes: 0}}, Stats{PostCount: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AggregateUserStats(tt.posts))
		})
	}
}

func TestBuild_OrdersPostsNewestFirst(t *testing.T) {
	t.Parallel()

	now := time.Now()
	user := models.User{ID: 1, Username: "aliciakeys"}
	posts := []models.Post{
		{ID: 4, Likes: 150, CreatedAt: now.Add(-48 * time.Hour)},
		{ID: 1, Likes: 128, CreatedAt: now},
	}

	p := Build(user, posts)
	assert.Equal(t, "aliciakeys", p.User.Username)
	assert.Equal(t, uint(1), p.Posts[0].ID)
	assert.Equal(t, uint(4), p.Posts[1].ID)
	assert.Equal(t, Stats{PostCount: 2, TotalLikes: 278}, p.Stats)
}
