package dummydb

import (
	"sync"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/continuing"
	"github.com/trezcool/udahili/core/doctorate"
	"github.com/trezcool/udahili/core/general"
	"github.com/trezcool/udahili/core/task"
)

type (
	// DB is an in-memory database; DEV/TEST default.
	DB struct {
		trainings  *trainingTable
		persons    *personTable
		curricula  *curriculumTable
		documents  *documentTable
		history    *historyTable
		continuing *continuingTable
		general    *generalTable
		doctorate  *doctorateTable
		groups     *groupTable
		tasks      *taskTable
	}

	trainingTable struct {
		sync.RWMutex
		table map[string]*admission.Training // key: acronym-year
	}

	personTable struct {
		sync.RWMutex
		table map[string]*admission.Person // key: matricule
	}

	curriculumTable struct {
		sync.RWMutex
		table map[string]*admission.Curriculum // key: matricule
	}

	documentTable struct {
		sync.RWMutex
		table map[string]map[string]*admission.Document // proposition id -> doc key
	}

	historyTable struct {
		sync.RWMutex
		table []admission.HistoryEntry
	}

	continuingTable struct {
		sync.RWMutex
		table map[string]*continuing.Proposition
		seq   map[int]int
	}

	generalTable struct {
		sync.RWMutex
		table map[string]*general.Proposition
		seq   map[int]int
	}

	doctorateTable struct {
		sync.RWMutex
		table map[string]*doctorate.Proposition
		seq   map[int]int
	}

	groupTable struct {
		sync.RWMutex
		table map[string]*doctorate.Group // key: proposition id
	}

	taskTable struct {
		sync.RWMutex
		table map[string]*task.Task
	}
)

func Open() (*DB, error) {
	db := &DB{
		trainings:  &trainingTable{table: make(map[string]*admission.Training)},
		persons:    &personTable{table: make(map[string]*admission.Person)},
		curricula:  &curriculumTable{table: make(map[string]*admission.Curriculum)},
		documents:  &documentTable{table: make(map[string]map[string]*admission.Document)},
		history:    &historyTable{},
		continuing: &continuingTable{table: make(map[string]*continuing.Proposition), seq: make(map[int]int)},
		general:    &generalTable{table: make(map[string]*general.Proposition), seq: make(map[int]int)},
		doctorate:  &doctorateTable{table: make(map[string]*doctorate.Proposition), seq: make(map[int]int)},
		groups:     &groupTable{table: make(map[string]*doctorate.Group)},
		tasks:      &taskTable{table: make(map[string]*task.Task)},
	}
	return db, nil
}
