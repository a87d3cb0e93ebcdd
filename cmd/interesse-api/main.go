package main

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-playground/validator/v10"
	"github.com/norbye/interesse/pkg/cache"
	"github.com/norbye/interesse/pkg/channels/gochannel"
	"github.com/norbye/interesse/pkg/channels/kafka"
	"github.com/norbye/interesse/pkg/eventbus"
	"github.com/norbye/interesse/pkg/hubdb"
	"github.com/norbye/interesse/pkg/hubspot"
	"github.com/norbye/interesse/pkg/interest"
	"github.com/norbye/interesse/pkg/log"
	"github.com/norbye/interesse/pkg/otelhelper"
	"github.com/norbye/interesse/pkg/web"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "interesse"
	defaultPort = 8080
)

func main() {
	logger := log.WithModule("api")

	cmd := &cli.Command{
		Name:                  "interesse-api",
		Usage:                 "Webhook service recording deal interest in HubSpot",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "hubspot-access-token",
				Usage:    "HubSpot private app access token",
				Required: true,
				Sources:  cli.EnvVars("HUBSPOT_ACCESS_TOKEN"),
			},
			&cli.StringFlag{
				Name:     "hubdb-table-id",
				Usage:    "Id of the HubDB table holding interest records",
				Required: true,
				Sources:  cli.EnvVars("HUBSPOT_TABLE_ID"),
			},
			&cli.StringFlag{
				Name:    "column-mapping",
				Usage:   "Path to a YAML file mapping record fields to table column ids",
				Sources: cli.EnvVars("COLUMN_MAPPING_FILE"),
			},
			&cli.BoolFlag{
				Name:  "skip-schema-check",
				Usage: "Skip validating the column mapping against the live table schema",
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the owner directory cache (optional)",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma-separated Kafka brokers for lifecycle events (optional)",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Enable OTLP trace export",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing interesse API")

			client := hubspot.NewClient(hubspot.Config{
				AccessToken: command.String("hubspot-access-token"),
			}, logger)

			columns, err := loadColumns(command.String("column-mapping"))
			if err != nil {
				return err
			}

			store := hubdb.NewStore(client, command.String("hubdb-table-id"), columns, logger)

			if !command.Bool("skip-schema-check") {
				err = checkColumns(ctx, store, columns)
				if err != nil {
					return err
				}
			}

			var directoryCache hubspot.DirectoryCache

			if redisURL := command.String("redis-url"); redisURL != "" {
				redisCache, err := cache.NewRedisCache(redisURL)
				if err != nil {
					return err
				}

				defer func() {
					if err := redisCache.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close Redis cache", "error", err)
					}
				}()

				directoryCache = redisCache
			}

			bus, err := newEventBus(command.String("kafka-brokers"), logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := bus.Close(); err != nil {
					logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
				}
			}()

			var tracer trace.Tracer

			if command.Bool("tracing") {
				tracer, err = otelhelper.NewTracer(ctx, serviceName)
				if err != nil {
					return err
				}
			}

			workflow := interest.New(interest.Config{
				Records: store,
				CRM:     client,
				Owners:  hubspot.NewOwnerResolver(client, directoryCache, logger),
				Bus:     bus,
				Tracer:  tracer,
				Logger:  logger,
			})
			defer workflow.Wait()

			handlers := web.NewAPIHandlers(
				workflow,
				store,
				validator.New(validator.WithRequiredStructEnabled()),
				logger,
			)

			api := NewAPI(logger, handlers)

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)
			}

			return err
		},
	}

	err := cmd.Run(context.Background(), os.Args)
	if err != nil {
		logger.Error("Failed to run interesse-api", "error", err)
		os.Exit(1)
	}
}

func loadColumns(path string) (hubdb.ColumnMapping, error) {
	if path == "" {
		return hubdb.DefaultColumnMapping(), nil
	}

	return hubdb.LoadColumnMapping(path)
}

// checkColumns verifies the configured column ids against the live table so
// a drifted mapping fails at startup instead of corrupting rows.
func checkColumns(ctx context.Context, store *hubdb.Store, columns hubdb.ColumnMapping) error {
	schema, err := store.FetchSchema(ctx)
	if err != nil {
		return err
	}

	return columns.ValidateAgainstTable(schema)
}

func newEventBus(kafkaBrokers string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	if kafkaBrokers != "" {
		pub, sub, err := kafka.CreateChannel(wmLogger, strings.Split(kafkaBrokers, ","), serviceName)
		if err != nil {
			return nil, err
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	}

	pub, sub := gochannel.CreateChannel(wmLogger)

	return eventbus.NewWatermillEventBus(pub, sub), nil
}
