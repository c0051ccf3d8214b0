// Package app wires the announcement agent's components from configuration.
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/capitalize-ai/announcement-agent/internal/agent"
	"github.com/capitalize-ai/announcement-agent/internal/config"
	"github.com/capitalize-ai/announcement-agent/internal/delivery"
	"github.com/capitalize-ai/announcement-agent/internal/draft"
	"github.com/capitalize-ai/announcement-agent/internal/handler"
	"github.com/capitalize-ai/announcement-agent/internal/intent"
	"github.com/capitalize-ai/announcement-agent/internal/llm"
	natsclient "github.com/capitalize-ai/announcement-agent/internal/nats"
	"github.com/capitalize-ai/announcement-agent/internal/service"
	"github.com/capitalize-ai/announcement-agent/internal/store"
	"github.com/capitalize-ai/announcement-agent/internal/tool"
	"github.com/capitalize-ai/announcement-agent/pkg/logger"
)

// App holds the constructed components. Close releases them.
type App struct {
	Service *service.EmailService
	Tools   *tool.Registry
	Gateway *delivery.Gateway
	Checks  map[string]handler.Pinger
	closers []func()
	log     *logger.Logger
}

type historyBackend interface {
	service.History
	handler.Pinger
}

// New builds every component. The email provider is verified before New
// returns, so a bad key or unreachable provider fails startup.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{log: log, Checks: map[string]handler.Pinger{}}

	client, err := llm.NewClient(llm.Provider(cfg.LLMProvider), cfg.LLMAPIKey(), cfg.LLMBaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	draftCfg := draft.DefaultConfig()
	draftCfg.Model = cfg.LLMModel
	draftCfg.Timeout = cfg.LLMTimeout
	draftCfg.Company = cfg.CompanyName
	draftCfg.Signature = cfg.CompanySignature
	generator := draft.NewGenerator(client, draftCfg, log)

	provider, err := delivery.NewProvider(delivery.Config{
		Provider: cfg.EmailProvider,
		SendGrid: delivery.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SenderEmail(),
			FromName:  cfg.EmailFromName,
			Timeout:   cfg.DeliveryTimeout,
		},
		SMTP: delivery.SMTPConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			FromEmail:   cfg.SenderEmail(),
			FromName:    cfg.EmailFromName,
			ImplicitTLS: cfg.SMTPImplicitTLS,
			Timeout:     cfg.DeliveryTimeout,
		},
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create email provider: %w", err)
	}

	tmpl, err := delivery.NewTemplate(cfg.CompanyName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email template: %w", err)
	}

	a.Gateway = delivery.NewGateway(provider, tmpl, cfg.DeliveryTimeout, log)
	if err := a.Gateway.Verify(ctx); err != nil {
		return nil, fmt.Errorf("email provider %s failed verification: %w", a.Gateway.Provider(), err)
	}

	history, events, err := a.openHistory(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Checks["history"] = history

	a.Service = service.NewEmailService(a.Gateway, history, log)
	if events != nil {
		a.Service.WithEvents(events)
	}

	a.Tools = tool.NewRegistry(
		tool.NewGenerateEmail(generator),
		tool.NewSendEmail(a.Service),
	)

	var router agent.Model
	switch cfg.AgentRouter {
	case "llm":
		router = agent.NewLLMModel(client, a.Tools.Definitions(), cfg.LLMModel, cfg.CompanyName, log)
	default:
		router = agent.NewRuleModel(intent.KeywordClassifier{})
	}

	controller := agent.NewController(router, a.Tools, agent.Config{
		MaxIterations: cfg.AgentMaxIterations,
		ModelTimeout:  cfg.LLMTimeout,
	}, log)
	a.Service.WithAgent(controller)

	log.Info("components ready",
		zap.String("llm_provider", client.Name()),
		zap.String("email_provider", a.Gateway.Provider()),
		zap.String("history_backend", cfg.HistoryBackend),
		zap.String("agent_router", cfg.AgentRouter),
	)

	return a, nil
}

func (a *App) openHistory(ctx context.Context, cfg *config.Config) (historyBackend, service.EventPublisher, error) {
	switch cfg.HistoryBackend {
	case "nats":
		nc, err := natsclient.Connect(ctx, natsclient.Config{
			URL:      cfg.NATSURL,
			CAFile:   cfg.NATSCAFile,
			CertFile: cfg.NATSCertFile,
			KeyFile:  cfg.NATSKeyFile,
			Token:    cfg.NATSToken,
		}, a.log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		a.closers = append(a.closers, nc.Close)

		stream, err := natsclient.NewHistoryStream(ctx, nc)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open history stream: %w", err)
		}
		return stream, stream, nil

	default:
		db, err := store.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open history database: %w", err)
		}
		a.closers = append(a.closers, func() {
			if err := db.Close(); err != nil {
				a.log.Error("failed to close history database", zap.Error(err))
			}
		})
		return db, nil, nil
	}
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
