package bootstrap

import (
	"cardforge-be/internal/config"
	"cardforge-be/internal/controller"
	"cardforge-be/internal/pkg/logger"
	"cardforge-be/internal/pkg/security"
	"cardforge-be/internal/repository/memory"
	"cardforge-be/internal/service"
)

type Container struct {
	// Controllers
	CardController     controller.ICardController
	LorebookController controller.ILorebookController
	SessionController  controller.ISessionController
	QuackController    controller.IQuackController
	ProxyController    controller.IProxyController
	HealthController   controller.IHealthController

	Logger logger.ILogger
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Infrastructure
	sessionRepo := memory.NewSessionRepository(cfg.Session.TTL)
	guard := security.NewGuard(cfg.Proxy.UrlAllowlist, cfg.Proxy.AllowLocalhost)

	// 3. Services
	cardService := service.NewCardService(sysLogger)
	lorebookService := service.NewLorebookService(sysLogger)
	sessionService := service.NewSessionService(sessionRepo, cfg.Session, sysLogger)
	quackService := service.NewQuackService(cfg.Quack, sysLogger)
	proxyService := service.NewProxyService(guard, cfg.Proxy, sysLogger)

	// 4. Controllers
	return &Container{
		CardController:     controller.NewCardController(cardService, cfg.Upload),
		LorebookController: controller.NewLorebookController(lorebookService),
		SessionController:  controller.NewSessionController(sessionService),
		QuackController:    controller.NewQuackController(quackService),
		ProxyController:    controller.NewProxyController(proxyService, cfg.Proxy),
		HealthController:   controller.NewHealthController(cfg.App, sessionRepo),

		Logger: sysLogger,
	}
}
