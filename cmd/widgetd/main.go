package main

import (
	"fmt"
	"log"
	"os"

	internalcli "github.com/omnidesk/widget/internal/cli"
	"github.com/omnidesk/widget/internal/config"
	"github.com/omnidesk/widget/internal/database"
	"github.com/omnidesk/widget/internal/repository"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

// buildStores picks the persistence backend. The default in-memory stores
// need no setup; HARNESS_PERSISTENCE=postgres keeps data across restarts.
func buildStores() (internalcli.Stores, func(), error) {
	if os.Getenv("HARNESS_PERSISTENCE") != "postgres" {
		return internalcli.MemoryStores(), func() {}, nil
	}

	if err := database.Connect(); err != nil {
		return internalcli.Stores{}, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Println("Connected to database successfully")

	if err := database.RunMigrations(); err != nil {
		database.Close()
		return internalcli.Stores{}, nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	stores := internalcli.Stores{
		Conversations: repository.NewConversationRepository(),
		Events:        repository.NewEventRepository(),
		Orders:        repository.NewOrderRepository(),
	}
	return stores, func() { database.Close() }, nil
}

// ServeCommand returns the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the widget harness server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "templates",
				Usage: "Directory holding the harness HTML templates",
				Value: "templates",
			},
		},
		Action: func(c *cli.Context) error {
			stores, cleanup, err := buildStores()
			if err != nil {
				return err
			}
			defer cleanup()

			widgetConfig, err := config.LoadWidgetConfig()
			if err != nil {
				return fmt.Errorf("invalid widget configuration: %w", err)
			}

			deps, err := internalcli.BuildServerDependencies(
				config.LoadServerConfig(),
				widgetConfig,
				c.String("templates"),
				stores,
			)
			if err != nil {
				return err
			}

			return internalcli.RunServe(deps)
		},
	}
}

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	app := &cli.App{
		Name:    "widgetd",
		Usage:   "Support widget harness management tool",
		Version: version,
		Commands: []*cli.Command{
			ServeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Fatal(err)
	}
}
