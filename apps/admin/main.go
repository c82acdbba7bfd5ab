package main

import (
	"log"
	"os"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/general"
	"github.com/trezcool/udahili/core/task"
	emailsvc "github.com/trezcool/udahili/services/email"
	tasksvc "github.com/trezcool/udahili/services/tasks"
	"github.com/trezcool/udahili/storage/database"
	sqlxrepos "github.com/trezcool/udahili/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	errAndDie(database.CreateIfNotExist(core.Conf))
	sdb, err := database.Open(core.Conf)
	errAndDie(err)
	defer sdb.Close()
	errAndDie(sdb.Ping())
	db := sqlxrepos.Wrap(sdb)

	// set up the one-shot task runner
	coreLogger := core.NewStdLogger(logger)
	notifier := admission.NewNotifier(emailsvc.NewConsoleService())

	trainings := sqlxrepos.NewTrainingRepository(db)
	persons := sqlxrepos.NewPersonRepository(db)
	history := sqlxrepos.NewHistoryRepository(db)
	generalSvc := general.NewService(
		sqlxrepos.NewGeneralRepository(db),
		trainings, persons,
		sqlxrepos.NewCurriculumRepository(db),
		sqlxrepos.NewDocumentRepository(db),
		sqlxrepos.NewPropositionCounter(db),
		history, notifier, coreLogger,
	)

	runner := task.NewRunner(sqlxrepos.NewTaskRepository(db), coreLogger)
	tasksvc.RegisterHandlers(runner, tasksvc.Deps{
		GeneralSvc: generalSvc,
		Trainings:  trainings,
		Persons:    persons,
		History:    history,
		Notifier:   notifier,
		Logger:     coreLogger,
	})

	// start CLI
	cli := commandLine{
		db:        sdb,
		trainings: trainings,
		runner:    runner,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
