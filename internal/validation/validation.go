// Package validation checks sign-up and post form input. Failures are
// field-scoped AppErrors so clients can show them next to the offending input.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"penloft/internal/models"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
	MaxPasswordLength = 128
	MinTitleLength    = 5
	MaxTitleLength    = 200
	MinContentLength  = 50
	MaxTags           = 20
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// ValidateUsername checks length and allowed characters.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < MinUsernameLength {
		return models.NewFieldError("username", fmt.Sprintf("Username must be at least %d characters.", MinUsernameLength))
	}
	if n > MaxUsernameLength {
		return models.NewFieldError("username", fmt.Sprintf("Username must not exceed %d characters.", MaxUsernameLength))
	}
	if !usernamePattern.MatchString(username) {
		return models.NewFieldError("username", "Username can only contain letters, numbers, underscores, and hyphens.")
	}
	return nil
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if len(email) > 254 || !emailPattern.MatchString(email) {
		return models.NewFieldError("email", "Please enter a valid email.")
	}
	return nil
}

// ValidatePassword checks password length.
func ValidatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return models.NewFieldError("password", fmt.Sprintf("Password must be at least %d characters.", MinPasswordLength))
	}
	if n > MaxPasswordLength {
		return models.NewFieldError("password", fmt.Sprintf("Password must not exceed %d characters.", MaxPasswordLength))
	}
	return nil
}

// ValidatePost checks the publish form fields in display order and returns
// the first failure.
func ValidatePost(title, content string, category models.Category, tags []string) error {
	title = strings.TrimSpace(title)
	switch n := utf8.RuneCountInString(title); {
	case n < MinTitleLength:
		return models.NewFieldError("title", fmt.Sprintf("Title must be at least %d characters.", MinTitleLength))
	case n > MaxTitleLength:
		return models.NewFieldError("title", fmt.Sprintf("Title must not exceed %d characters.", MaxTitleLength))
	}
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinContentLength {
		return models.NewFieldError("content", fmt.Sprintf("Content must be at least %d characters.", MinContentLength))
	}
	if category == "" {
		return models.NewFieldError("category", "Please select a category.")
	}
	if !category.Valid() {
		return models.NewFieldError("category", fmt.Sprintf("Unknown category %q.", category))
	}
	if len(tags) > MaxTags {
		return models.NewFieldError("tags", fmt.Sprintf("At most %d tags are allowed.", MaxTags))
	}
	return nil
}

// NormalizeTags trims tags, strips a leading '#', drops empties and removes
// case-insensitive duplicates keeping the first spelling.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(t), "#"))
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma-separated tag field.
func SplitTags(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}
