package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/task"
)

var errHelp = errors.New("help provided")

type trainingStore interface {
	AddTraining(training admission.Training) error
}

type commandLine struct {
	db        *sql.DB
	trainings trainingStore
	runner    *task.Runner
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - apply database migrations (any goose command)")
	fmt.Println("  addtraining -acronym ACRONYM -year YEAR -title TITLE -type TYPE [-entity ENTITY] [-campus CAMPUS] - add or update a training")
	fmt.Println("  runtasks - process all pending background tasks once")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTrainingCmd := flag.NewFlagSet("addtraining", flag.ExitOnError)
	addTrainingAcronym := addTrainingCmd.String("acronym", "", "The training's acronym, eg. ECGE3DP.")
	addTrainingYear := addTrainingCmd.Int("year", 0, "The academic year the training is offered in.")
	addTrainingTitle := addTrainingCmd.String("title", "", "The training's full title.")
	addTrainingType := addTrainingCmd.String("type", "", "One of: BACHELOR, MASTER, AGGREGATION, CERTIFICATE, UNIVERSITY_CERTIFICATE, PHD.")
	addTrainingEntity := addTrainingCmd.String("entity", "", "The management entity's acronym.")
	addTrainingCampus := addTrainingCmd.String("campus", "", "The teaching campus.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addtraining":
		if err := addTrainingCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addTrainingAcronym == "" || *addTrainingYear == 0 || *addTrainingTitle == "" || *addTrainingType == "" {
			addTrainingCmd.Usage()
			return errHelp
		}
		return cli.addTraining(*addTrainingAcronym, *addTrainingTitle, *addTrainingType, *addTrainingEntity, *addTrainingCampus, *addTrainingYear)
	case "runtasks":
		return cli.runTasks()
	default:
		cli.printUsage()
		return errHelp
	}
}
