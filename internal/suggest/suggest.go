// Package suggest wraps a generative model that proposes post titles,
// descriptions and tags. Every fault surfaces as ErrSuggestionFailed and no
// call is retried.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"penloft/internal/middleware"
	"penloft/internal/observability"
	"penloft/internal/validation"

	"google.golang.org/genai"
)

const (
	// MinContentLength is the shortest post body accepted by SuggestTags.
	MinContentLength = 50
	// MinTags is the fewest tags a tag suggestion must carry.
	MinTags = 5
	// ContentSuggestions is the exact number of title suggestions returned.
	ContentSuggestions = 3
)

var (
	// ErrSuggestionFailed is the only error callers see for model faults.
	ErrSuggestionFailed = errors.New("suggestion failed")
	// ErrContentTooShort is returned before any model call.
	ErrContentTooShort = fmt.Errorf("content must be at least %d characters", MinContentLength)
	// ErrTopicRequired is returned before any model call.
	ErrTopicRequired = errors.New("topic is required")
)

// Generator produces a JSON document for prompt that matches schema.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// Suggestion is a proposed title with a short description.
type Suggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Service validates input, calls the Generator and checks the output shape.
type Service struct {
	gen     Generator
	timeout time.Duration
	logger  *slog.Logger
}

// NewService wraps gen. A nil gen makes every call fail with
// ErrSuggestionFailed.
func NewService(gen Generator, timeout time.Duration) *Service {
	return &Service{gen: gen, timeout: timeout, logger: middleware.Logger}
}

// SuggestTags proposes at least MinTags tags for a post body.
func (s *Service) SuggestTags(ctx context.Context, content string) ([]string, error) {
	if utf8.RuneCountInString(strings.TrimSpace(content)) < MinContentLength {
		return nil, ErrContentTooShort
	}

	prompt := "You are an expert in content tagging. Suggest at least 5 relevant, concise tags " +
		"for the following blog post. Respond with JSON of the form {\"tags\": [\"...\"]}.\n\n" +
		"Content:\n" + content

	var out struct {
		Tags []string `json:"tags"`
	}
	if err := s.run(ctx, "tags", prompt, tagsSchema(), &out); err != nil {
		return nil, err
	}

	tags := validation.NormalizeTags(out.Tags)
	if len(tags) < MinTags {
		s.logger.WarnContext(ctx, "tag suggestion below minimum", "count", len(tags))
		return nil, ErrSuggestionFailed
	}
	return tags, nil
}

// SuggestContent proposes exactly ContentSuggestions title/description pairs
// for a topic.
func (s *Service) SuggestContent(ctx context.Context, topic string) ([]Suggestion, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, ErrTopicRequired
	}

	prompt := "You are a creative writing assistant for a blogging platform. Suggest exactly 3 " +
		"engaging blog post titles with a one-sentence description each for the topic below. " +
		"Respond with JSON of the form {\"suggestions\": [{\"title\": \"...\", \"description\": \"...\"}]}.\n\n" +
		"Topic: " + topic

	var out struct {
		Suggestions []Suggestion `json:"suggestions"`
	}
	if err := s.run(ctx, "content", prompt, contentSchema(), &out); err != nil {
		return nil, err
	}

	if len(out.Suggestions) != ContentSuggestions {
		s.logger.WarnContext(ctx, "content suggestion count mismatch", "count", len(out.Suggestions))
		return nil, ErrSuggestionFailed
	}
	for i := range out.Suggestions {
		out.Suggestions[i].Title = strings.TrimSpace(out.Suggestions[i].Title)
		out.Suggestions[i].Description = strings.TrimSpace(out.Suggestions[i].Description)
		if out.Suggestions[i].Title == "" {
			return nil, ErrSuggestionFailed
		}
	}
	return out.Suggestions, nil
}

func (s *Service) run(ctx context.Context, kind, prompt string, schema *genai.Schema, dest any) (err error) {
	start := time.Now()
	ctx, finish := observability.StartSpan(ctx, "suggest."+kind)
	defer func() {
		observability.ObserveSuggestion(kind, start, err)
		finish(err)
	}()

	if s == nil || s.gen == nil {
		return ErrSuggestionFailed
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, genErr := s.gen.Generate(ctx, prompt, schema)
	if genErr != nil {
		s.logger.ErrorContext(ctx, "AI suggestion request failed", "kind", kind, "error", genErr)
		return ErrSuggestionFailed
	}
	if jsonErr := json.Unmarshal([]byte(raw), dest); jsonErr != nil {
		s.logger.ErrorContext(ctx, "AI suggestion response malformed", "kind", kind, "error", jsonErr)
		return ErrSuggestionFailed
	}
	return nil
}
