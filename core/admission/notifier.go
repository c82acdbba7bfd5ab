package admission

import (
	"fmt"
	"net/mail"

	"github.com/trezcool/udahili/core"
)

// Notifier builds and dispatches the applicant-facing emails of the
// proposition lifecycle, returning the rendered message. Implementations send
// asynchronously; a failed notification never rolls back the mutation it
// announces.
type Notifier interface {
	NotifySubmitted(applicant Person, trainingTitle string) *core.EmailMessage
	NotifyStatusChanged(applicant Person, trainingTitle, status string) *core.EmailMessage
	NotifyDocumentsRequested(applicant Person, trainingTitle string, docs []Document) *core.EmailMessage
	NotifySignatureRequested(signatory Person, applicant Person, trainingTitle string) *core.EmailMessage
}

type emailNotifier struct {
	mailSvc core.EmailService
}

var _ Notifier = (*emailNotifier)(nil)

func NewNotifier(mailSvc core.EmailService) Notifier {
	return &emailNotifier{mailSvc: mailSvc}
}

func (n *emailNotifier) NotifySubmitted(applicant Person, trainingTitle string) *core.EmailMessage {
	return n.send(&core.EmailMessage{
		To:           []mail.Address{{Name: applicant.FullName(), Address: applicant.Email}},
		Subject:      fmt.Sprintf("Your application for %s has been submitted", trainingTitle),
		TemplateName: "proposition-submitted",
		TemplateData: map[string]interface{}{
			"Name":     applicant.FullName(),
			"Training": trainingTitle,
		},
	})
}

func (n *emailNotifier) NotifyStatusChanged(applicant Person, trainingTitle, status string) *core.EmailMessage {
	return n.send(&core.EmailMessage{
		To:           []mail.Address{{Name: applicant.FullName(), Address: applicant.Email}},
		Subject:      fmt.Sprintf("Your application for %s has been updated", trainingTitle),
		TemplateName: "proposition-status-changed",
		TemplateData: map[string]interface{}{
			"Name":     applicant.FullName(),
			"Training": trainingTitle,
			"Status":   status,
		},
	})
}

func (n *emailNotifier) NotifyDocumentsRequested(applicant Person, trainingTitle string, docs []Document) *core.EmailMessage {
	labels := make([]string, 0, len(docs))
	for _, doc := range docs {
		labels = append(labels, doc.Label)
	}
	return n.send(&core.EmailMessage{
		To:           []mail.Address{{Name: applicant.FullName(), Address: applicant.Email}},
		Subject:      fmt.Sprintf("Documents requested for your %s application", trainingTitle),
		TemplateName: "documents-requested",
		TemplateData: map[string]interface{}{
			"Name":      applicant.FullName(),
			"Training":  trainingTitle,
			"Documents": labels,
		},
	})
}

func (n *emailNotifier) NotifySignatureRequested(signatory Person, applicant Person, trainingTitle string) *core.EmailMessage {
	return n.send(&core.EmailMessage{
		To:           []mail.Address{{Name: signatory.FullName(), Address: signatory.Email}},
		Subject:      fmt.Sprintf("Signature requested: %s's application for %s", applicant.FullName(), trainingTitle),
		TemplateName: "signature-requested",
		TemplateData: map[string]interface{}{
			"Name":      signatory.FullName(),
			"Applicant": applicant.FullName(),
			"Training":  trainingTitle,
		},
	})
}

func (n *emailNotifier) send(msg *core.EmailMessage) *core.EmailMessage {
	n.mailSvc.SendMessages(msg)
	return msg
}
