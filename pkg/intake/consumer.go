// Package intake accepts suggestion candidates from agents that run outside this process.
// Producers push JSON envelopes onto a Redis list; the consumer pops them and stores the
// candidates as pending suggestions.
package intake

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/runner"
	redis "github.com/redis/go-redis/v9"
)

const (
	DefaultQueue   = "pressdesk:candidates"
	DefaultAddr    = "localhost:6379"
	popTimeout     = 1 * time.Second
	connectTimeout = 5 * time.Second
)

var (
	ErrQueueRequired = errors.New("intake queue name is required")
	ErrAgentRequired = errors.New("envelope agent is required")
	ErrNoCandidates  = errors.New("envelope has no candidates")
)

// Envelope is the message an external agent pushes onto the intake queue.
type Envelope struct {
	Agent      string                       `json:"agent"`
	Candidates []models.CandidateSuggestion `json:"candidates"`
}

// Persister stores candidates on behalf of a named agent.
type Persister interface {
	PersistCandidates(
		ctx context.Context,
		agentName string,
		candidates []models.CandidateSuggestion,
	) (*runner.Result, error)
}

type Config struct {
	Addr     string
	Password string
	DB       int
	Queue    string
	// DeadLetter receives payloads that cannot be decoded. Empty discards them.
	DeadLetter string
}

func (c Config) Validate() error {
	if c.Queue == "" {
		return ErrQueueRequired
	}

	if c.DB < 0 {
		return fmt.Errorf("invalid redis db %d", c.DB)
	}

	return nil
}

// Connect opens a Redis client for config and checks it responds.
func Connect(ctx context.Context, config Config) (redis.UniversalClient, error) {
	addr := config.Addr
	if addr == "" {
		addr = DefaultAddr
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

type Consumer struct {
	client    redis.UniversalClient
	persister Persister
	config    Config
	logger    *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

func NewConsumer(
	logger *slog.Logger,
	client redis.UniversalClient,
	persister Persister,
	config Config,
) (*Consumer, error) {
	err := config.Validate()
	if err != nil {
		return nil, err
	}

	return &Consumer{
		client:    client,
		persister: persister,
		config:    config,
		logger:    logger.With("module", "intake", "queue", config.Queue),
	}, nil
}

// Start consumes the queue in the background until Stop is called or ctx is done.
func (c *Consumer) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return
	}

	c.logger.InfoContext(ctx, "Starting intake consumer")

	c.stopCh = make(chan struct{})
	c.running = true

	c.wg.Add(1)

	go c.consume(ctx, c.stopCh)
}

// Stop waits for the in-flight message to finish. The Redis client is left open for its owner.
func (c *Consumer) Stop(ctx context.Context) {
	c.mu.Lock()

	if !c.running {
		c.mu.Unlock()

		return
	}

	close(c.stopCh)
	c.running = false

	c.mu.Unlock()

	c.wg.Wait()
	c.logger.InfoContext(ctx, "Intake consumer stopped")
}

func (c *Consumer) consume(ctx context.Context, stopCh <-chan struct{}) {
	defer c.wg.Done()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Context cancelled, stopping intake consumer")

			return
		default:
			_, err := c.ProcessOne(ctx)
			if err != nil && ctx.Err() == nil {
				c.logger.ErrorContext(ctx, "Error processing intake message", "error", err)
				time.Sleep(1 * time.Second)
			}
		}
	}
}

// ProcessOne pops at most one message, waiting up to a second. It reports whether a
// message was taken off the queue.
func (c *Consumer) ProcessOne(ctx context.Context) (bool, error) {
	result, err := c.client.BLPop(ctx, popTimeout, c.config.Queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}

		return false, fmt.Errorf("failed to pop from %s: %w", c.config.Queue, err)
	}

	if len(result) < 2 {
		return false, nil
	}

	payload := []byte(result[1])

	err = c.Handle(ctx, payload)
	if err == nil {
		return true, nil
	}

	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		c.logger.WarnContext(ctx, "Discarding malformed intake message", "error", err)
		c.deadLetter(ctx, payload)

		return true, nil
	}

	return true, err
}

// Handle decodes one payload and stores its candidates.
func (c *Consumer) Handle(ctx context.Context, payload []byte) error {
	envelope, err := Decode(payload)
	if err != nil {
		return err
	}

	result, err := c.persister.PersistCandidates(ctx, envelope.Agent, envelope.Candidates)
	if err != nil {
		return fmt.Errorf("failed to persist candidates from %s: %w", envelope.Agent, err)
	}

	c.logger.InfoContext(ctx, "Accepted external candidates",
		"agent_name", envelope.Agent,
		"received", len(envelope.Candidates),
		"stored", len(result.Suggestions),
		"dropped", result.Dropped,
	)

	return nil
}

func (c *Consumer) deadLetter(ctx context.Context, payload []byte) {
	if c.config.DeadLetter == "" {
		return
	}

	err := c.client.RPush(ctx, c.config.DeadLetter, payload).Err()
	if err != nil {
		c.logger.ErrorContext(ctx, "Failed to dead-letter intake message", "error", err)
	}
}

// DecodeError marks a payload that will never succeed and should not be retried.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "malformed intake envelope: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decode parses and checks an envelope.
func Decode(payload []byte) (*Envelope, error) {
	var envelope Envelope

	err := json.Unmarshal(payload, &envelope)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	if envelope.Agent == "" {
		return nil, &DecodeError{Err: ErrAgentRequired}
	}

	if len(envelope.Candidates) == 0 {
		return nil, &DecodeError{Err: ErrNoCandidates}
	}

	return &envelope, nil
}

// Push encodes envelope and appends it to queue. External agents written in Go use it to
// hand over their output.
func Push(ctx context.Context, client redis.UniversalClient, queue string, envelope Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to encode envelope: %w", err)
	}

	err = client.RPush(ctx, queue, payload).Err()
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", queue, err)
	}

	return nil
}
