package tasksvc

import (
	"context"
	"io/ioutil"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/general"
	"github.com/trezcool/udahili/core/task"
	emailsvc "github.com/trezcool/udahili/services/email"
	dummydb "github.com/trezcool/udahili/storage/database/dummy"
)

type testEnv struct {
	repo    task.Repository
	runner  *task.Runner
	svc     *general.Service
	history admission.History
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := dummydb.Open()
	require.NoError(t, err)

	trainings := dummydb.NewTrainingRepository(db)
	persons := dummydb.NewPersonRepository(db)
	history := dummydb.NewHistoryRepository(db)
	logger := core.NewStdLogger(log.New(ioutil.Discard, "", 0))
	notifier := admission.NewNotifier(emailsvc.NewConsoleServiceMock())

	require.NoError(t, trainings.AddTraining(admission.Training{
		Acronym: "DROI1BA", Year: 2022, Title: "Bachelor in Law", Type: admission.TypeBachelor,
	}))
	persons.AddPerson(admission.Person{Matricule: "12345678", FirstName: "Marie", LastName: "Curie", Email: "marie@test.cd"})

	curricula := dummydb.NewCurriculumRepository(db)
	require.NoError(t, curricula.SaveCurriculum("12345678", admission.Curriculum{Files: []string{"cv.pdf"}}))

	svc := general.NewService(
		dummydb.NewGeneralRepository(db),
		trainings, persons,
		curricula,
		dummydb.NewDocumentRepository(db),
		dummydb.NewPropositionCounter(db),
		history, notifier, logger,
	)

	repo := dummydb.NewTaskRepository(db)
	runner := task.NewRunner(repo, logger)
	RegisterHandlers(runner, Deps{
		GeneralSvc: svc,
		Trainings:  trainings,
		Persons:    persons,
		History:    history,
		Notifier:   notifier,
		Logger:     logger,
	})

	return &testEnv{repo: repo, runner: runner, svc: svc, history: history}
}

func (env *testEnv) enqueue(t *testing.T, kind string, payload interface{}) task.Task {
	t.Helper()
	tsk, err := task.New(kind, payload)
	require.NoError(t, err)
	tsk, err = env.repo.CreateTask(tsk)
	require.NoError(t, err)
	return tsk
}

func submittedProposition(t *testing.T, env *testEnv) general.Proposition {
	t.Helper()
	prop, err := env.svc.Initiate(general.InitiateCommand{
		Matricule: "12345678", TrainingAcronym: "DROI1BA", TrainingYear: 2022,
	})
	require.NoError(t, err)
	prop, err = env.svc.Submit(general.SubmitCommand{PropositionID: prop.ID})
	require.NoError(t, err)
	return prop
}

func TestHandlers_paymentStatus(t *testing.T) {
	env := newTestEnv(t)
	prop := submittedProposition(t, env)
	require.Equal(t, general.StatusAwaitingFeePayment, prop.Status)

	tsk := env.enqueue(t, task.KindPaymentStatus, paymentStatusPayload{PropositionID: prop.ID, Paid: true})

	n, err := env.runner.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tsk, err = env.repo.GetTask(tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StateDone, tsk.State)

	prop, err = env.svc.Get(prop.ID)
	require.NoError(t, err)
	assert.Equal(t, general.StatusSubmitted, prop.Status)
	assert.NotNil(t, prop.FeePaidAt)
}

func TestHandlers_recapAndSignaletique(t *testing.T) {
	env := newTestEnv(t)
	prop := submittedProposition(t, env)

	env.enqueue(t, task.KindRecapPdf, recapPayload{PropositionID: prop.ID})
	env.enqueue(t, task.KindSignaletique, signaletiquePayload{PropositionID: prop.ID, Matricule: prop.Matricule})

	n, err := env.runner.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := env.history.List(prop.ID, "recap")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	entries, err = env.history.List(prop.ID, "signaletique")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHandlers_documentReminders(t *testing.T) {
	env := newTestEnv(t)
	prop := submittedProposition(t, env)

	// no pending request: nothing to remind, the task still completes
	tsk := env.enqueue(t, task.KindDocumentReminders, documentRemindersPayload{PropositionID: prop.ID})
	_, err := env.runner.Drain(context.Background())
	require.NoError(t, err)

	tsk, err = env.repo.GetTask(tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StateDone, tsk.State)

	// request a document, then the reminder goes out
	docs, err := env.svc.ResetDocuments(prop.ID)
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	_, err = env.svc.RequestDocuments(general.RequestDocumentsCommand{
		PropositionID: prop.ID,
		Author:        "99999999",
		Keys:          []string{docs[0].Key()},
		Reason:        "unreadable scan",
	})
	require.NoError(t, err)

	emailsvc.SentMessages = emailsvc.SentMessages[:0]
	tsk = env.enqueue(t, task.KindDocumentReminders, documentRemindersPayload{PropositionID: prop.ID})
	_, err = env.runner.Drain(context.Background())
	require.NoError(t, err)

	tsk, err = env.repo.GetTask(tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StateDone, tsk.State)
	require.Len(t, emailsvc.SentMessages, 1)
	assert.Contains(t, emailsvc.SentMessages[0].Subject, "Documents requested")

	// an unknown proposition errors the task out after the retry budget
	tsk = env.enqueue(t, task.KindDocumentReminders, documentRemindersPayload{PropositionID: "nope"})
	n, err := env.runner.Drain(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.Conf.Task.MaxAttempts, n)

	tsk, err = env.repo.GetTask(tsk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StateError, tsk.State)
}
