package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core/continuing"
)

func Test_continuingAPI_auth(t *testing.T) {
	tests := []httpTest{
		{name: "GET list requires auth", method: http.MethodGet, path: "/v1/continuing", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "POST initiate requires auth", method: http.MethodPost, path: "/v1/continuing", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_continuingAPI_lifecycle(t *testing.T) {
	applicantToken := getToken(t, applicant, false)
	intruderToken := getToken(t, intruder, false)
	managerToken := getToken(t, manager, true)

	// initiate
	body := marchallObj(t, continuing.InitiateCommand{
		TrainingAcronym: "FORM1CE",
		TrainingYear:    2022,
		Motivations:     "lifelong learning",
	})
	req, rec := newAuthRequest(http.MethodPost, "/v1/continuing", applicantToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var prop continuing.Proposition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, applicant.Matricule, prop.Matricule)
	assert.Equal(t, continuing.StatusDraft, prop.Status)
	assert.True(t, strings.HasPrefix(prop.Reference, "M-CONT22-"))

	// a non-continuing training is refused with the violated rule's code
	badBody := marchallObj(t, continuing.InitiateCommand{TrainingAcronym: "DROI1BA", TrainingYear: 2022})
	req, rec = newAuthRequest(http.MethodPost, "/v1/continuing", applicantToken, badBody)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORMATION-CONTINUE-1")

	// the applicant sees their proposition, an intruder gets a 404
	req, rec = newAuthRequest(http.MethodGet, "/v1/continuing/"+prop.ID, applicantToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/continuing/"+prop.ID, intruderToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// submit
	req, rec = newAuthRequest(http.MethodPost, "/v1/continuing/"+prop.ID+"/submit", applicantToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, continuing.StatusSubmitted, prop.Status)

	// decisions are manager-only
	req, rec = newAuthRequest(http.MethodPost, "/v1/continuing/"+prop.ID+"/take-in-charge", applicantToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPost, "/v1/continuing/"+prop.ID+"/take-in-charge", managerToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// cancel needs a reason
	req, rec = newAuthRequest(http.MethodPost, "/v1/continuing/"+prop.ID+"/cancel", applicantToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORMATION-CONTINUE-6")

	req, rec = newAuthRequest(http.MethodPost, "/v1/continuing/"+prop.ID+"/cancel", applicantToken,
		marchallObj(t, map[string]string{"reason": "changed my mind"}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, continuing.StatusCancelled, prop.Status)

	// unknown proposition
	req, rec = newAuthRequest(http.MethodGet, "/v1/continuing/nope", applicantToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
