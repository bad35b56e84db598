package cache

import (
	"fmt"
	"time"
)

const (
	PostSlugKeyPrefix  = "post:slug:%s"
	UserKeyPrefix      = "user:%d"
	UserPostsKeyPrefix = "user:%d:posts"
	PostListKey        = "posts:all"
	UserListKey        = "users:all"
	RevokedTokenPrefix = "jwt:revoked:%s"
)

const (
	PostTTL     = 30 * time.Minute
	PostListTTL = 1 * time.Minute
	UserTTL     = 5 * time.Minute
)

func PostSlugKey(slug string) string {
	return fmt.Sprintf(PostSlugKeyPrefix, slug)
}

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func UserPostsKey(userID uint) string {
	return fmt.Sprintf(UserPostsKeyPrefix, userID)
}

func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenPrefix, jti)
}
