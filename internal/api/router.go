package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swagger "github.com/go-swagno/swagno-fiber/swagger"
	"github.com/saturnino-fabrica-de-software/kinface/internal/api/docs"
	"github.com/saturnino-fabrica-de-software/kinface/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/kinface/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/kinface/internal/database"
	"github.com/saturnino-fabrica-de-software/kinface/internal/ws"
)

// Dependencies are the services behind the routes. Nil members switch
// their routes off.
type Dependencies struct {
	Identities handler.IdentityService
	Recognizer handler.Recognizer
	Enroller   handler.Enroller
	Session    handler.SessionController
	// Hub is started by Setup and stopped by Shutdown.
	Hub       *ws.Hub
	Publisher handler.Publisher
	DB        database.Pinger
	Metrics   prometheus.Gatherer
}

type Router struct {
	app       *fiber.App
	logger    *slog.Logger
	deps      *Dependencies
	cancelHub context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Kinface API",
		BodyLimit:    64 * 1024 * 1024,
	})

	if deps == nil {
		deps = &Dependencies{}
	}

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	healthHandler := handler.NewHealthHandler(r.deps.DB)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps.Metrics != nil {
		r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(r.deps.Metrics, promhttp.HandlerOpts{})))
	}

	v1 := r.app.Group("/v1")

	publisher := r.deps.Publisher
	if publisher == nil && r.deps.Hub != nil {
		publisher = r.deps.Hub
	}

	if r.deps.Identities != nil {
		identityHandler := handler.NewIdentityHandler(r.deps.Identities, publisher, r.logger)

		v1.Get("/identities", identityHandler.List)
		v1.Get("/identities/:id", identityHandler.Get)
		v1.Patch("/identities/:id", identityHandler.Update)
		v1.Delete("/identities/:id", identityHandler.Delete)
		v1.Get("/identities/:id/image", identityHandler.Image)
	}

	if r.deps.Recognizer != nil && r.deps.Enroller != nil {
		faceHandler := handler.NewFaceHandler(r.deps.Recognizer, r.deps.Enroller, publisher, r.logger)

		v1.Post("/recognize", faceHandler.Recognize)
		v1.Post("/enroll", faceHandler.Enroll)
	}

	if r.deps.Session != nil {
		sessionHandler := handler.NewSessionHandler(r.deps.Session, r.logger)

		v1.Get("/session", sessionHandler.Status)
		v1.Post("/session/commands", sessionHandler.Command)
	}

	if r.deps.Hub != nil {
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.deps.Hub.Run(hubCtx)

		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.deps.Hub, r.logger))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub
	if r.cancelHub != nil {
		r.cancelHub()
	}

	return r.app.Shutdown()
}
