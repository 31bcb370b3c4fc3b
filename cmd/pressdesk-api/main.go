package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/dukex/pressdesk/pkg/chat"
	"github.com/dukex/pressdesk/pkg/cmd"
	"github.com/dukex/pressdesk/pkg/log"
	cli "github.com/urfave/cli/v3"
)

const defaultPort = 9091

func main() {
	err := cmd.LoadDotEnv()
	if err != nil {
		panic(err)
	}

	command := &cli.Command{
		Name:                  "pressdesk-api",
		Usage:                 "Review and act on AI suggestions for the site",
		EnableShellCompletion: true,
		Flags: append(cmd.CommonFlags(),
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "chat-endpoint",
				Usage:   "URL of the visitor chat answer endpoint",
				Sources: cli.EnvVars("CHAT_ENDPOINT"),
			},
			&cli.StringFlag{
				Name:    "chat-token",
				Usage:   "Bearer token for the chat answer endpoint",
				Sources: cli.EnvVars("CHAT_TOKEN"),
			},
		),
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = command.Run(ctx, os.Args)
	if err != nil {
		panic(err)
	}
}

func run(ctx context.Context, command *cli.Command) error {
	closeLog := log.Setup(command.String("log-level"), command.String("log-file"))
	defer func() { _ = closeLog() }()

	logger := log.WithModule("api")

	logger.InfoContext(ctx, "Initializing pressdesk API")

	core, cleanup, err := cmd.Bootstrap(ctx, logger, command, "pressdesk-api")
	defer cleanup()

	if err != nil {
		return err
	}

	var chatClient *chat.Client

	if endpoint := command.String("chat-endpoint"); endpoint != "" {
		chatClient, err = chat.NewClient(logger, chat.Config{
			Endpoint: endpoint,
			Token:    command.String("chat-token"),
		})
		if err != nil {
			return err
		}
	}

	err = core.Start(ctx)
	if err != nil {
		return err
	}

	defer core.Stop(context.WithoutCancel(ctx))

	logger.InfoContext(ctx, "Listening", "port", command.Int("port"))

	return NewAPI(logger, core, chatClient).Start(ctx, command.Int("port"))
}
