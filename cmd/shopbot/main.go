package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/jsonc"
	"github.com/urfave/cli/v2"

	appservice "shopbot/pkg/application/service"
	"shopbot/pkg/config"
	"shopbot/pkg/domain/model"
	"shopbot/pkg/domain/service"
	"shopbot/pkg/infrastructure/events"
	"shopbot/pkg/infrastructure/jsonfile"
	"shopbot/pkg/infrastructure/memory"
	"shopbot/pkg/infrastructure/telegram"
	"shopbot/pkg/transport"
)

func main() {
	app := &cli.App{
		Name:  "shopbot",
		Usage: "storefront assistant for Telegram channels",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "overrides LOG_LEVEL"},
		},
		Before: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if c.IsSet("log-level") {
				cfg.LogLevel = c.String("log-level")
			}
			c.App.Metadata = map[string]interface{}{"config": cfg}
			return setupLogging(cfg)
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "receive updates through the webhook",
				Action: serve,
			},
			{
				Name:   "poll",
				Usage:  "receive updates with long polling",
				Action: poll,
			},
			{
				Name:   "sync",
				Usage:  "post every catalog product that is missing from the products channel",
				Action: syncCatalog,
			},
			{
				Name:      "validate",
				Usage:     "check products.json / admins.json documents without touching the stores",
				ArgsUsage: "FILE...",
				Action:    validate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Fatal("shopbot failed")
	}
}

func configFrom(c *cli.Context) *config.Config {
	return c.App.Metadata["config"].(*config.Config)
}

func setupLogging(cfg *config.Config) error {
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrapf(err, "log level %q", cfg.LogLevel)
	}
	log.SetLevel(level)
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return errors.Wrapf(err, "open log file %s", cfg.LogFile)
		}
		log.SetOutput(file)
	}
	return nil
}

type bot struct {
	dispatcher  *telegram.Dispatcher
	publication service.PublicationService
}

func newBot(cfg *config.Config) (*bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, errors.Wrap(err, "connect to bot api")
	}
	log.WithField("bot", api.Self.UserName).Info("authorized")

	defaultAdmin, err := model.ParseIdentity(cfg.DefaultAdmin)
	if err != nil {
		return nil, errors.Wrapf(err, "DEFAULT_ADMIN %q", cfg.DefaultAdmin)
	}

	seq := jsonfile.NewSequence(cfg.SequencePath())
	catalog := jsonfile.NewCatalog(cfg.ProductsPath(), seq)
	roster := jsonfile.NewRoster(cfg.AdminsPath(), defaultAdmin)
	orders := memory.NewOrderStore(seq)
	messenger := telegram.NewMessenger(api)
	dispatcher := events.NewLogDispatcher(log.StandardLogger())
	channels := service.Channels{
		Products: model.ChatRef{Username: cfg.ProductsChannel},
		Orders:   model.ChatRef{Username: cfg.OrdersChannel},
		Currency: cfg.Currency,
	}

	permissions := service.NewPermissionService(roster)
	backup := service.NewBackupService(catalog, roster, messenger)
	publication := service.NewPublicationService(catalog, permissions, backup, messenger, channels, dispatcher)
	services := appservice.Services{
		Permissions: permissions,
		Intake:      service.NewIntakeService(catalog, permissions, messenger, channels, dispatcher),
		Publication: publication,
		Orders:      service.NewOrderService(catalog, orders, roster, permissions, messenger, channels, dispatcher),
		Roster:      service.NewRosterService(roster, permissions, backup, messenger, dispatcher),
		Catalog:     service.NewCatalogService(catalog, permissions, backup, messenger, channels, dispatcher),
		Import:      service.NewImportService(catalog, roster, permissions, publication, backup, messenger, dispatcher),
	}
	assistant := appservice.NewAssistant(services, memory.NewSessionStore(), messenger)

	return &bot{
		dispatcher:  telegram.NewDispatcher(api, assistant, cfg.Workers),
		publication: publication,
	}, nil
}

func serve(c *cli.Context) error {
	cfg := configFrom(c)
	b, err := newBot(cfg)
	if err != nil {
		return err
	}

	if url := cfg.WebhookURL(); url != "" {
		if err := b.dispatcher.RegisterWebhook(url); err != nil {
			return err
		}
		log.WithField("url", url).Info("webhook registered")
	} else {
		log.Warn("RENDER_EXTERNAL_HOSTNAME is not set, keeping the current webhook")
	}

	serverUrl := fmt.Sprintf(":%d", cfg.Port)
	log.WithFields(log.Fields{"url": serverUrl, "path": cfg.WebhookPath}).Info("Starting server")

	killSignalChan := getKillSignalChan()
	srv := startServer(serverUrl, transport.Router(cfg.WebhookPath, b.dispatcher))

	waitForKillSignalChan(killSignalChan)
	return srv.Shutdown(context.Background())
}

func poll(c *cli.Context) error {
	b, err := newBot(configFrom(c))
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("polling for updates")
	return b.dispatcher.Poll(ctx)
}

func syncCatalog(c *cli.Context) error {
	b, err := newBot(configFrom(c))
	if err != nil {
		return err
	}
	posted, err := b.publication.Reconcile(c.Context)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "posted %d product(s)\n", posted)
	return nil
}

func validate(c *cli.Context) error {
	if c.NArg() == 0 {
		return cli.Exit("validate: no files given", 2)
	}
	failed := 0
	for _, path := range c.Args().Slice() {
		if err := validateFile(path); err != nil {
			failed++
			fmt.Fprintf(c.App.Writer, "%s: %v\n", path, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "%s: ok\n", path)
	}
	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d invalid document(s)", failed), 1)
	}
	return nil
}

func validateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	data = jsonc.ToJSON(data)
	switch filepath.Base(path) {
	case model.CatalogDocumentName:
		_, err = model.ValidateCatalog(data)
	case model.RosterDocumentName:
		_, err = model.ValidateRoster(data)
	default:
		err = model.ErrUnknownDocument
	}
	return err
}

func startServer(serverUrl string, router http.Handler) *http.Server {
	srv := &http.Server{Addr: serverUrl, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	return srv
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignalChan(killSignalChan <-chan os.Signal) {
	killSignal := <-killSignalChan
	switch killSignal {
	case os.Interrupt:
		log.Info("Got SIGINT...")
	case syscall.SIGTERM:
		log.Info("Got SIGTERM...")
	}
}
