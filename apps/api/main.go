package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/trezcool/udahili/apps/api/echo"
	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/continuing"
	"github.com/trezcool/udahili/core/doctorate"
	"github.com/trezcool/udahili/core/general"
	emailsvc "github.com/trezcool/udahili/services/email"
	logsvc "github.com/trezcool/udahili/services/logger"
	"github.com/trezcool/udahili/storage/database"
	sqlxrepos "github.com/trezcool/udahili/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	sdb, err := database.Open(core.Conf)
	errAndDie(err)
	defer sdb.Close()
	db := sqlxrepos.Wrap(sdb)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	notifier := admission.NewNotifier(mailSvc)

	trainings := sqlxrepos.NewTrainingRepository(db)
	persons := sqlxrepos.NewPersonRepository(db)
	curricula := sqlxrepos.NewCurriculumRepository(db)
	documents := sqlxrepos.NewDocumentRepository(db)
	history := sqlxrepos.NewHistoryRepository(db)
	counter := sqlxrepos.NewPropositionCounter(db)

	continuingSvc := continuing.NewService(
		sqlxrepos.NewContinuingRepository(db),
		trainings, persons, curricula, documents, counter, history, notifier, logger,
	)
	generalSvc := general.NewService(
		sqlxrepos.NewGeneralRepository(db),
		trainings, persons, curricula, documents, counter, history, notifier, logger,
	)
	doctorateSvc := doctorate.NewService(
		sqlxrepos.NewDoctorateRepository(db),
		sqlxrepos.NewGroupRepository(db),
		trainings, persons, counter, history, notifier, logger,
	)

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		core.Conf.Server.Address(),
		shutdown,
		&echoapi.Deps{
			Logger:        logger,
			Trainings:     trainings,
			ContinuingSvc: continuingSvc,
			GeneralSvc:    generalSvc,
			DoctorateSvc:  doctorateSvc,
		},
	)
	go app.Start()

	// block until a shutdown signal comes in
	sig := <-shutdown
	logger.Info("shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()
	if err := app.Stop(ctx); err != nil {
		logger.Error("could not stop server gracefully", err)
	}
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
