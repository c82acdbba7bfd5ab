package echoapi

import (
	"context"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/continuing"
	"github.com/trezcool/udahili/core/doctorate"
	"github.com/trezcool/udahili/core/general"
)

type (
	// Deps holds the services the API is built on.
	Deps struct {
		Logger        core.Logger
		Trainings     admission.TrainingRepository
		ContinuingSvc *continuing.Service
		GeneralSvc    *general.Service
		DoctorateSvc  *doctorate.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		addr     string
		shutdown chan<- os.Signal
		deps     *Deps
		app      *echo.Echo
	}
)

var _ Server = (*server)(nil) // interface compliance check

func NewServer(addr string, shutdown chan<- os.Signal, deps *Deps) Server {
	s := &server{
		addr:     addr,
		shutdown: shutdown,
		deps:     deps,
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	debug := core.Conf.Debug

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !core.Conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerTrainingAPI(v1, jwt, s.deps.Trainings)
	registerContinuingAPI(v1, jwt, s.deps.ContinuingSvc)
	registerGeneralAPI(v1, jwt, s.deps.GeneralSvc)
	registerDoctorateAPI(v1, jwt, s.deps.DoctorateSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.addr))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// signalShutdown asks main() to shut the app down gracefully.
func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- os.Interrupt
	}
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Udahili API!")
}
