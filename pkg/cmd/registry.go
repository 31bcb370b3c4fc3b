// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/dukex/pressdesk/pkg/actions/autoapprove"
	"github.com/dukex/pressdesk/pkg/actions/autoimplement"
	"github.com/dukex/pressdesk/pkg/actions/createtask"
	"github.com/dukex/pressdesk/pkg/actions/notifyadmin"
	"github.com/dukex/pressdesk/pkg/actions/schedulereview"
	"github.com/dukex/pressdesk/pkg/agents/contentgap"
	"github.com/dukex/pressdesk/pkg/agents/headlinerefresh"
	"github.com/dukex/pressdesk/pkg/agents/seooptimizer"
	"github.com/dukex/pressdesk/pkg/notifications"
	"github.com/dukex/pressdesk/pkg/persistence"
	"github.com/dukex/pressdesk/pkg/registry"
	"github.com/dukex/pressdesk/pkg/services"
)

func registerAgentPlugins(log *slog.Logger, reg *registry.Registry, pluginsPath string) error {
	agentPlugins, err := reg.LoadAgentPlugins(pluginsPath)
	if err != nil {
		return err
	}

	for _, plugin := range agentPlugins {
		log.Info("Registering agent plugin", "agent_type", plugin.ID())
		reg.RegisterAgent(plugin)
	}

	return nil
}

func registerNativeAgents(reg *registry.Registry) {
	reg.RegisterAgent(seooptimizer.NewAgentFactory())
	reg.RegisterAgent(contentgap.NewAgentFactory())
	reg.RegisterAgent(headlinerefresh.NewAgentFactory())
}

// NewRegistry registers the native agents and any agent plugins found under pluginsPath.
// Actions depend on services and are registered by NewCore.
func NewRegistry(log *slog.Logger, pluginsPath string) (*registry.Registry, error) {
	reg := registry.NewRegistry(log)

	registerNativeAgents(reg)

	if pluginsPath != "" {
		err := registerAgentPlugins(log, reg, pluginsPath)
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}

func registerNativeActions(
	reg *registry.Registry,
	p persistence.Persistence,
	suggestions *services.Suggestions,
	implementer *services.Implementer,
	feed *notifications.Feed,
) {
	reg.RegisterAction(autoapprove.NewActionFactory(suggestions))
	reg.RegisterAction(autoimplement.NewActionFactory(suggestions, implementer))
	reg.RegisterAction(notifyadmin.NewActionFactory(feed))
	reg.RegisterAction(schedulereview.NewActionFactory(p.TaskRepository()))
	reg.RegisterAction(createtask.NewActionFactory(p.TaskRepository()))
}
