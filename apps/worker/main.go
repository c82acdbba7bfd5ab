package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/general"
	"github.com/trezcool/udahili/core/task"
	emailsvc "github.com/trezcool/udahili/services/email"
	logsvc "github.com/trezcool/udahili/services/logger"
	tasksvc "github.com/trezcool/udahili/services/tasks"
	"github.com/trezcool/udahili/storage/database"
	sqlxrepos "github.com/trezcool/udahili/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "WORKER : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug)

	// set up DB
	sdb, err := database.Open(core.Conf)
	if err != nil {
		std.Fatal(err)
	}
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
	history := sqlxrepos.NewHistoryRepository(db)
	generalSvc := general.NewService(
		sqlxrepos.NewGeneralRepository(db),
		trainings, persons,
		sqlxrepos.NewCurriculumRepository(db),
		sqlxrepos.NewDocumentRepository(db),
		sqlxrepos.NewPropositionCounter(db),
		history, notifier, logger,
	)

	runner := task.NewRunner(sqlxrepos.NewTaskRepository(db), logger)
	tasksvc.RegisterHandlers(runner, tasksvc.Deps{
		GeneralSvc: generalSvc,
		Trainings:  trainings,
		Persons:    persons,
		History:    history,
		Notifier:   notifier,
		Logger:     logger,
	})

	// run until a shutdown signal comes in
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		<-shutdown
		cancel()
	}()

	logger.Info("task runner started")
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		logger.Fatal("task runner stopped", err)
	}
	logger.Info("task runner stopped")
}
