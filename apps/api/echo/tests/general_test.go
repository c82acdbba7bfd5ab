package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core/admission"
	"github.com/trezcool/udahili/core/general"
)

func Test_generalAPI_lifecycle(t *testing.T) {
	applicantToken := getToken(t, applicant, false)
	managerToken := getToken(t, manager, true)

	// initiate
	body := marchallObj(t, general.InitiateCommand{TrainingAcronym: "DROI1BA", TrainingYear: 2022})
	req, rec := newAuthRequest(http.MethodPost, "/v1/general", applicantToken, body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var prop general.Proposition
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusDraft, prop.Status)
	assert.True(t, strings.HasPrefix(prop.Reference, "M-GEN22-"))

	// submit parks the dossier until the application fee is paid
	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/submit", applicantToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusAwaitingFeePayment, prop.Status)

	// fee payment is manager-only
	feeBody := marchallObj(t, general.SpecifyFeePaymentCommand{Paid: true})
	req, rec = newAuthRequest(http.MethodPut, "/v1/general/"+prop.ID+"/fee-payment", applicantToken, feeBody)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req, rec = newAuthRequest(http.MethodPut, "/v1/general/"+prop.ID+"/fee-payment", managerToken, feeBody)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusSubmitted, prop.Status)
	assert.NotNil(t, prop.FeePaidAt)

	// recompute the document placeholders, then claim one from the applicant
	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/documents/reset", managerToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var docs []admission.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))
	require.NotEmpty(t, docs)

	reqBody := marchallObj(t, general.RequestDocumentsCommand{
		Keys:   []string{docs[0].Key()},
		Reason: "unreadable scan",
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/documents/request", managerToken, reqBody)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusToCompleteForSic, prop.Status)

	// the requested placeholder is visible to the applicant
	req, rec = newAuthRequest(http.MethodGet, "/v1/general/"+prop.ID+"/documents", applicantToken)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &docs))

	var requestedKeys []string
	for _, doc := range docs {
		if doc.Status == admission.DocRequested {
			requestedKeys = append(requestedKeys, doc.Key())
		}
	}
	require.Len(t, requestedKeys, 1)

	// fac round-trip
	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/documents/cancel-request", managerToken,
		marchallObj(t, general.CancelDocumentRequestCommand{Key: requestedKeys[0]}))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/send-to-fac", managerToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusFacProcessing, prop.Status)

	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/approve-by-fac", managerToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusBackFromFac, prop.Status)

	// enrollment authorization ends the flow
	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/approve-by-sic", managerToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &prop))
	assert.Equal(t, general.StatusEnrollmentAuthorized, prop.Status)

	// a refusal without reason is a violation
	req, rec = newAuthRequest(http.MethodPost, "/v1/general/"+prop.ID+"/refuse-by-sic", managerToken, []byte("{}"))
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
