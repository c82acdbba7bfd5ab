package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core"
)

type recordingMailService struct {
	sent []*core.EmailMessage
}

var _ core.EmailService = (*recordingMailService)(nil)

func (s *recordingMailService) SendMessages(messages ...*core.EmailMessage) {
	s.sent = append(s.sent, messages...)
}

func TestNotifier(t *testing.T) {
	applicant := Person{Matricule: "12345678", FirstName: "Jane", LastName: "Doe", Email: "jane@example.org"}

	t.Run("submitted", func(t *testing.T) {
		mailSvc := &recordingMailService{}
		msg := NewNotifier(mailSvc).NotifySubmitted(applicant, "Bachelier en droit")
		require.NotNil(t, msg)
		require.Len(t, mailSvc.sent, 1)
		assert.Same(t, msg, mailSvc.sent[0])
		assert.Equal(t, "proposition-submitted", msg.TemplateName)
		assert.Equal(t, "jane@example.org", msg.To[0].Address)
		assert.Contains(t, msg.Subject, "Bachelier en droit")
	})

	t.Run("documents requested lists the labels", func(t *testing.T) {
		mailSvc := &recordingMailService{}
		docs := []Document{
			{Tab: TabCurriculum, DocID: "curriculum", Label: "Curriculum vitae"},
			{Tab: TabSecondaryStudies, DocID: "diploma", Label: "Diplôme d'études secondaires"},
		}
		msg := NewNotifier(mailSvc).NotifyDocumentsRequested(applicant, "Bachelier en droit", docs)
		require.NotNil(t, msg)
		require.Len(t, mailSvc.sent, 1)
		assert.Same(t, msg, mailSvc.sent[0])
		assert.Equal(t, "documents-requested", msg.TemplateName)
		data := msg.TemplateData.(map[string]interface{})
		assert.Equal(t, []string{"Curriculum vitae", "Diplôme d'études secondaires"}, data["Documents"])
	})

	t.Run("signature requested goes to the signatory", func(t *testing.T) {
		mailSvc := &recordingMailService{}
		promoter := Person{Matricule: "00000001", FirstName: "John", LastName: "Smith", Email: "john@example.org"}
		msg := NewNotifier(mailSvc).NotifySignatureRequested(promoter, applicant, "Doctorat en sciences")
		require.NotNil(t, msg)
		require.Len(t, mailSvc.sent, 1)
		assert.Same(t, msg, mailSvc.sent[0])
		assert.Equal(t, "signature-requested", msg.TemplateName)
		assert.Equal(t, "john@example.org", msg.To[0].Address)
		assert.Contains(t, msg.Subject, "Jane Doe")
	})
}
