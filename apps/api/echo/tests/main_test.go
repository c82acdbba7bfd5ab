package tests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	. "github.com/trezcool/udahili/apps/api/echo"
	"github.com/trezcool/udahili/core"
	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/continuing"
	"github.com/trezcool/udahili/core/doctorate"
	"github.com/trezcool/udahili/core/general"
	emailsvc "github.com/trezcool/udahili/services/email"
	dummydb "github.com/trezcool/udahili/storage/database/dummy"
)

var (
	app Server

	applicant = admission.Person{Matricule: "12345678", FirstName: "Marie", LastName: "Curie", Email: "marie@test.cd", Language: "fr"}
	intruder  = admission.Person{Matricule: "87654321", FirstName: "Pierre", LastName: "Curie", Email: "pierre@test.cd", Language: "fr"}
	manager   = admission.Person{Matricule: "99999999", FirstName: "Jeanne", LastName: "Manager", Email: "jeanne@test.cd", Language: "fr"}

	continuingSvc *continuing.Service
	generalSvc    *general.Service
	doctorateSvc  *doctorate.Service

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		fmt.Printf("dummydb.Open(): %v", err)
		os.Exit(1)
	}

	trainings := dummydb.NewTrainingRepository(db)
	persons := dummydb.NewPersonRepository(db)
	curricula := dummydb.NewCurriculumRepository(db)
	documents := dummydb.NewDocumentRepository(db)
	history := dummydb.NewHistoryRepository(db)
	counter := dummydb.NewPropositionCounter(db)

	// seed the catalog and the identity registry
	_ = trainings.AddTraining(admission.Training{Acronym: "FORM1CE", Year: 2022, Title: "Continuing certificate", Type: admission.TypeCertificate, ManagementEntity: "FC"})
	_ = trainings.AddTraining(admission.Training{Acronym: "DROI1BA", Year: 2022, Title: "Bachelor in Law", Type: admission.TypeBachelor, ManagementEntity: "DRT"})
	_ = trainings.AddTraining(admission.Training{Acronym: "ECGE3DP", Year: 2022, Title: "Doctorate in Economics", Type: admission.TypeDoctorate, ManagementEntity: "CDE"})
	persons.AddPerson(applicant)
	persons.AddPerson(intruder)
	persons.AddPerson(manager)
	_ = curricula.SaveCurriculum(applicant.Matricule, admission.Curriculum{Files: []string{"cv.pdf"}})

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	notifier := admission.NewNotifier(mailSvc)
	logger := core.NewStdLogger(log.New(ioutil.Discard, "", 0))

	continuingSvc = continuing.NewService(
		dummydb.NewContinuingRepository(db),
		trainings, persons, curricula, documents, counter, history, notifier, logger,
	)
	generalSvc = general.NewService(
		dummydb.NewGeneralRepository(db),
		trainings, persons, curricula, documents, counter, history, notifier, logger,
	)
	doctorateSvc = doctorate.NewService(
		dummydb.NewDoctorateRepository(db),
		dummydb.NewGroupRepository(db),
		trainings, persons, counter, history, notifier, logger,
	)

	// set up server
	app = NewServer(
		"",  /* addr */
		nil, /* shutdown */
		&Deps{
			Logger:        logger,
			Trainings:     trainings,
			ContinuingSvc: continuingSvc,
			GeneralSvc:    generalSvc,
			DoctorateSvc:  doctorateSvc,
		},
	)

	os.Exit(m.Run())
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, person admission.Person, isManager bool) string {
	claims := NewClaims(person.Matricule, person.Email, isManager)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
