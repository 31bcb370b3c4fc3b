// Package registry maps agent and rule-action types to their factories.
package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"plugin"
	"sort"
	"strings"

	"github.com/dukex/pressdesk/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

var (
	ErrUnknownAgentType  = errors.New("agent type not registered")
	ErrUnknownActionType = errors.New("action type not registered")
	ErrInvalidConfig     = errors.New("invalid config")
)

// ConfigError lists the schema violations of a component config.
type ConfigError struct {
	Type     string
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config for %s: %s", e.Type, strings.Join(e.Problems, "; "))
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// ComponentInfo describes a registered factory.
type ComponentInfo struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Schema      map[string]any `json:"schema"`
}

type Registry struct {
	logger          *slog.Logger
	agentFactories  map[string]protocol.AgentFactory
	actionFactories map[string]protocol.ActionFactory
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		logger:          log.With("module", "registry"),
		agentFactories:  make(map[string]protocol.AgentFactory),
		actionFactories: make(map[string]protocol.ActionFactory),
	}
}

// LoadAgentPlugins opens every <pluginsPath>/agents/*/*.so exporting an "Agent" factory.
func (r *Registry) LoadAgentPlugins(pluginsPath string) ([]protocol.AgentFactory, error) {
	return loadPlugin[protocol.AgentFactory](r.logger, pluginsPath, "Agent")
}

func (r *Registry) RegisterAgent(factory protocol.AgentFactory) {
	r.agentFactories[factory.ID()] = factory
}

func (r *Registry) RegisterAction(factory protocol.ActionFactory) {
	r.actionFactories[factory.ID()] = factory
}

// CreateAgent validates config against the factory schema and builds the agent.
func (r *Registry) CreateAgent(agentType string, config map[string]any) (protocol.Agent, error) {
	factory, ok := r.agentFactories[agentType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAgentType, agentType)
	}

	config = orEmpty(config)

	err := validateConfig(agentType, factory.Schema(), config)
	if err != nil {
		return nil, err
	}

	return factory.Create(config)
}

func (r *Registry) CreateAction(actionType string, config map[string]any) (protocol.Action, error) {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}

	config = orEmpty(config)

	err := validateConfig(actionType, factory.Schema(), config)
	if err != nil {
		return nil, err
	}

	return factory.Create(config)
}

func (r *Registry) ValidateAgentConfig(agentType string, config map[string]any) error {
	factory, ok := r.agentFactories[agentType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAgentType, agentType)
	}

	return validateConfig(agentType, factory.Schema(), orEmpty(config))
}

func (r *Registry) ValidateActionConfig(actionType string, config map[string]any) error {
	factory, ok := r.actionFactories[actionType]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}

	return validateConfig(actionType, factory.Schema(), orEmpty(config))
}

func (r *Registry) HasAgentType(agentType string) bool {
	_, ok := r.agentFactories[agentType]

	return ok
}

func (r *Registry) HasActionType(actionType string) bool {
	_, ok := r.actionFactories[actionType]

	return ok
}

// AgentTypes returns the registered agent factories sorted by id.
func (r *Registry) AgentTypes() []ComponentInfo {
	infos := make([]ComponentInfo, 0, len(r.agentFactories))
	for _, f := range r.agentFactories {
		infos = append(infos, ComponentInfo{ID: f.ID(), Name: f.Name(), Description: f.Description(), Schema: f.Schema()})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	return infos
}

// ActionTypes returns the registered action factories sorted by id.
func (r *Registry) ActionTypes() []ComponentInfo {
	infos := make([]ComponentInfo, 0, len(r.actionFactories))
	for _, f := range r.actionFactories {
		infos = append(infos, ComponentInfo{ID: f.ID(), Name: f.Name(), Description: f.Description(), Schema: f.Schema()})
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })

	return infos
}

// IsConfigError reports whether err is a schema validation failure.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidConfig)
}

func orEmpty(config map[string]any) map[string]any {
	if config == nil {
		return map[string]any{}
	}

	return config
}

func validateConfig(componentType string, schema map[string]any, config map[string]any) error {
	if schema == nil {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	dataLoader := gojsonschema.NewGoLoader(config)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate %s config: %w", componentType, err)
	}

	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}

		return &ConfigError{Type: componentType, Problems: problems}
	}

	return nil
}

func loadPlugin[T any](logger *slog.Logger, pluginsPath string, symbolName string) ([]T, error) {
	if pluginsPath == "" {
		return nil, nil
	}

	rootPath := pluginsPath + "/" + strings.ToLower(symbolName) + "s"
	root := os.DirFS(rootPath)

	pluginPathList, err := fs.Glob(root, "**/*.so")
	if err != nil {
		return nil, err
	}

	l := logger.With(slog.String("path", pluginsPath), slog.String("type", symbolName))
	l.Info("Loading plugins")

	pluginList := make([]T, 0, len(pluginPathList))

	for _, p := range pluginPathList {
		plg, err := plugin.Open(rootPath + "/" + p)
		if err != nil {
			return nil, fmt.Errorf("failed to open plugin %s: %w", p, err)
		}

		v, err := plg.Lookup(symbolName)
		if err != nil {
			return nil, fmt.Errorf("plugin %s does not export %s: %w", p, symbolName, err)
		}

		castV, ok := v.(T)
		if !ok {
			return nil, fmt.Errorf("plugin %s: %s has unexpected type %T", p, symbolName, v)
		}

		pluginList = append(pluginList, castV)

		l.Info("Loaded plugin", slog.String("plugin", p))
	}

	return pluginList, nil
}
