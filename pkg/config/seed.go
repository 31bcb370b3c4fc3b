// Package config loads the YAML seed file that provisions agents and workflow rules.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dukex/pressdesk/pkg/models"
	"github.com/dukex/pressdesk/pkg/persistence"
	"gopkg.in/yaml.v3"
)

// Seed is the content of a seed file.
type Seed struct {
	Agents []AgentSeed `yaml:"agents"`
	Rules  []RuleSeed  `yaml:"rules"`
}

type AgentSeed struct {
	Name        string         `yaml:"name"`
	Type        string         `yaml:"type"`
	Description string         `yaml:"description"`
	Config      map[string]any `yaml:"config"`
	// Active defaults to true.
	Active *bool `yaml:"active"`
}

type RuleSeed struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Priority    int             `yaml:"priority"`
	Enabled     *bool           `yaml:"enabled"`
	Trusted     bool            `yaml:"trusted"`
	Conditions  []ConditionSeed `yaml:"conditions"`
	Actions     []ActionSeed    `yaml:"actions"`
}

type ConditionSeed struct {
	Type     string `yaml:"type"`
	Operator string `yaml:"operator"`
	Value    any    `yaml:"value"`
}

type ActionSeed struct {
	Type       string         `yaml:"type"`
	Parameters map[string]any `yaml:"parameters"`
}

// Load reads and parses a seed file.
func Load(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Seed, error) {
	var seed Seed

	err := yaml.Unmarshal(data, &seed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse YAML seed: %w", err)
	}

	for i, agent := range seed.Agents {
		if agent.Name == "" || agent.Type == "" {
			return nil, fmt.Errorf("agent %d: name and type are required", i)
		}
	}

	for i, rule := range seed.Rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
	}

	return &seed, nil
}

func (a AgentSeed) model() *models.AIAgent {
	active := true
	if a.Active != nil {
		active = *a.Active
	}

	return &models.AIAgent{
		Name:        a.Name,
		Type:        a.Type,
		Description: a.Description,
		Config:      a.Config,
		IsActive:    active,
	}
}

func (r RuleSeed) model() *models.WorkflowRule {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}

	rule := &models.WorkflowRule{
		Name:        r.Name,
		Description: r.Description,
		Priority:    r.Priority,
		Enabled:     enabled,
		Trusted:     r.Trusted,
		Conditions:  make([]models.Condition, 0, len(r.Conditions)),
		Actions:     make([]models.RuleAction, 0, len(r.Actions)),
	}

	for _, c := range r.Conditions {
		rule.Conditions = append(rule.Conditions, models.Condition{
			Type:     models.ConditionType(c.Type),
			Operator: models.Operator(c.Operator),
			Value:    c.Value,
		})
	}

	for _, a := range r.Actions {
		rule.Actions = append(rule.Actions, models.RuleAction{
			Type:       models.RuleActionType(a.Type),
			Parameters: a.Parameters,
		})
	}

	return rule
}

// AgentStore creates agents through validation.
type AgentStore interface {
	FetchByName(ctx context.Context, name string) (*models.AIAgent, error)
	Create(ctx context.Context, agent *models.AIAgent) (*models.AIAgent, error)
}

// RuleStore creates rules through validation.
type RuleStore interface {
	List(ctx context.Context) ([]*models.WorkflowRule, error)
	Create(ctx context.Context, rule *models.WorkflowRule) (*models.WorkflowRule, error)
}

// ApplyResult counts what Apply created and skipped.
type ApplyResult struct {
	AgentsCreated int
	AgentsSkipped int
	RulesCreated  int
	RulesSkipped  int
}

// Apply creates the agents and rules that do not exist yet, matching by name, so a seed can
// be applied on every start. An invalid agent stops the apply. Invalid rules are reported
// together after the valid ones are created.
func (s *Seed) Apply(ctx context.Context, logger *slog.Logger, agents AgentStore, rules RuleStore) (ApplyResult, error) {
	var result ApplyResult

	logger = logger.With("module", "seed")

	for _, seed := range s.Agents {
		_, err := agents.FetchByName(ctx, seed.Name)
		if err == nil {
			result.AgentsSkipped++

			continue
		}

		if !persistence.IsAgentNotFound(err) {
			return result, fmt.Errorf("failed to look up agent %s: %w", seed.Name, err)
		}

		_, err = agents.Create(ctx, seed.model())
		if err != nil {
			return result, fmt.Errorf("failed to seed agent %s: %w", seed.Name, err)
		}

		logger.InfoContext(ctx, "Seeded agent", "agent_name", seed.Name, "agent_type", seed.Type)

		result.AgentsCreated++
	}

	existing, err := rules.List(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to list rules: %w", err)
	}

	names := make(map[string]bool, len(existing))
	for _, rule := range existing {
		names[rule.Name] = true
	}

	var errs []error

	for _, seed := range s.Rules {
		if names[seed.Name] {
			result.RulesSkipped++

			continue
		}

		_, err := rules.Create(ctx, seed.model())
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to seed rule %s: %w", seed.Name, err))

			continue
		}

		names[seed.Name] = true

		logger.InfoContext(ctx, "Seeded workflow rule", "rule_name", seed.Name)

		result.RulesCreated++
	}

	return result, errors.Join(errs...)
}
