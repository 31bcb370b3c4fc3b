// Package chat talks to the remote search and answer endpoint behind the visitor chat widget.
package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTimeout      = 10 * time.Second
	DefaultRevealPace   = 50 * time.Millisecond
	MaxHistoryTurns     = 10
	MaxReferencesShown  = 2
	MaxFollowUps        = 3
	defaultLanguage     = "en"
	apologyMessage      = "Sorry, I couldn't find an answer right now. Please try again in a moment."
	maxErrorBodyPreview = 512
)

var (
	ErrEmptyQuery       = errors.New("chat query is required")
	ErrEndpointRequired = errors.New("chat endpoint is required")
	ErrUnsuccessful     = errors.New("chat endpoint reported failure")
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type Reference struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	Excerpt  string `json:"excerpt"`
	Category string `json:"category"`
	Author   string `json:"author"`
}

// Message is what the widget appends to the conversation after a query.
type Message struct {
	ID          string      `json:"id"`
	Role        Role        `json:"role"`
	Content     string      `json:"content"`
	References  []Reference `json:"references,omitempty"`
	Suggestions []string    `json:"suggestions,omitempty"`
	IsError     bool        `json:"is_error"`
	CreatedAt   time.Time   `json:"created_at"`
}

type request struct {
	Query               string `json:"query"`
	Language            string `json:"language"`
	ConversationHistory []Turn `json:"conversationHistory"`
}

type response struct {
	Success    bool        `json:"success"`
	Answer     string      `json:"answer,omitempty"`
	References []Reference `json:"references,omitempty"`
	Error      string      `json:"error,omitempty"`
}

type Config struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

type Client struct {
	config     Config
	httpClient *http.Client
	now        func() time.Time
	logger     *slog.Logger
}

func NewClient(logger *slog.Logger, config Config) (*Client, error) {
	if config.Endpoint == "" {
		return nil, ErrEndpointRequired
	}

	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{},
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With("module", "chat"),
	}, nil
}

// Ask sends query with the recent history and returns the assistant message. Transport and
// endpoint failures are not returned as errors: they become an apology message with IsError
// set. The only error is an empty query.
func (c *Client) Ask(ctx context.Context, query string, history []Turn) (Message, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Message{}, ErrEmptyQuery
	}

	answer, err := c.call(ctx, query, history)
	if err != nil {
		c.logger.WarnContext(ctx, "Chat request failed", "error", err)

		return c.apology(), nil
	}

	references := answer.References
	if len(references) > MaxReferencesShown {
		references = references[:MaxReferencesShown]
	}

	return Message{
		ID:          uuid.NewString(),
		Role:        RoleAssistant,
		Content:     answer.Answer,
		References:  references,
		Suggestions: FollowUps(query, references),
		CreatedAt:   c.now(),
	}, nil
}

func (c *Client) call(ctx context.Context, query string, history []Turn) (*response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body, err := json.Marshal(request{
		Query:               query,
		Language:            defaultLanguage,
		ConversationHistory: RecentHistory(history),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build chat request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyPreview))

		return nil, fmt.Errorf("chat endpoint returned status %d: %s", resp.StatusCode, preview)
	}

	var out response

	err = json.NewDecoder(resp.Body).Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}

	if !out.Success || out.Answer == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsuccessful, out.Error)
	}

	return &out, nil
}

func (c *Client) apology() Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   apologyMessage,
		IsError:   true,
		CreatedAt: c.now(),
	}
}

// RecentHistory keeps the last MaxHistoryTurns turns.
func RecentHistory(history []Turn) []Turn {
	if len(history) <= MaxHistoryTurns {
		if history == nil {
			return []Turn{}
		}

		return history
	}

	return history[len(history)-MaxHistoryTurns:]
}

// FollowUps proposes the next questions a visitor might ask, led by the categories of the
// references shown.
func FollowUps(query string, references []Reference) []string {
	seen := map[string]bool{}
	out := make([]string, 0, MaxFollowUps)

	add := func(s string) {
		if len(out) < MaxFollowUps && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, ref := range references {
		if ref.Category != "" {
			add("Show me more articles about " + ref.Category)
		}
	}

	for _, ref := range references {
		if ref.Author != "" {
			add("What else has " + ref.Author + " written?")
		}
	}

	add(fmt.Sprintf("Tell me more about %q", query))

	return out
}

// Reveal emits text one word at a time, each prefix of the answer after the previous one,
// pausing interval between words. The channel closes when the text is complete or ctx is done.
func Reveal(ctx context.Context, text string, interval time.Duration) <-chan string {
	if interval <= 0 {
		interval = DefaultRevealPace
	}

	out := make(chan string)
	words := strings.Fields(text)

	go func() {
		defer close(out)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for i := range words {
			select {
			case <-ctx.Done():
				return
			case out <- strings.Join(words[:i+1], " "):
			}

			if i == len(words)-1 {
				return
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return out
}
