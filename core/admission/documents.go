package admission

import (
	"time"
)

// DocumentType tells who may request or fill a document placeholder.
type DocumentType string

const (
	// document tied to a field of the application form
	DocTypeNonFree DocumentType = "NON_LIBRE"
	// free documents requestable from the applicant
	DocTypeFreeRequestableSic DocumentType = "LIBRE_RECLAMABLE_SIC"
	DocTypeFreeRequestableFac DocumentType = "LIBRE_RECLAMABLE_FAC"
	// free documents for internal use only, never shown to the applicant
	DocTypeFreeInternalSic DocumentType = "LIBRE_INTERNE_SIC"
	DocTypeFreeInternalFac DocumentType = "LIBRE_INTERNE_FAC"
	// generated by the system (recap PDFs and the like)
	DocTypeSystem DocumentType = "SYSTEME"
)

type DocumentStatus string

const (
	DocToRequest             DocumentStatus = "A_RECLAMER"
	DocRequested             DocumentStatus = "RECLAME"
	DocNotAnalysed           DocumentStatus = "NON_ANALYSE"
	DocValidated             DocumentStatus = "VALIDE"
	DocCompletedAfterRequest DocumentStatus = "COMPLETE_APRES_RECLAMATION"
)

// RequestStatus qualifies the urgency of a document request.
type RequestStatus string

const (
	RequestImmediately      RequestStatus = "IMMEDIATEMENT"
	RequestLaterBlocking    RequestStatus = "ULTERIEUREMENT_BLOQUANT"
	RequestLaterNonBlocking RequestStatus = "ULTERIEUREMENT_NON_BLOQUANT"
)

// Application form tabs a document can be attached to.
const (
	TabIdentification   = "identification"
	TabCurriculum       = "curriculum"
	TabSecondaryStudies = "etudes_secondaires"
	TabTrainingChoice   = "choix_formation"
	TabAdditionalInfo   = "informations_additionnelles"
)

// Document is a placeholder tracking one expected or requested file of a
// proposition. Identity is (PropositionID, Tab, DocID).
type Document struct {
	PropositionID string         `json:"proposition_id"`
	Tab           string         `json:"tab"`
	DocID         string         `json:"doc_id"`
	Label         string         `json:"label"`
	Type          DocumentType   `json:"type"`
	Status        DocumentStatus `json:"status"`
	RequestStatus RequestStatus  `json:"request_status,omitempty"`
	Requester     string         `json:"requester,omitempty"`
	Reason        string         `json:"reason,omitempty"`
	RequestedAt   *time.Time     `json:"requested_at,omitempty"`
	DeadlineAt    *time.Time     `json:"deadline_at,omitempty"`
	CompletedAt   *time.Time     `json:"completed_at,omitempty"`
}

// Key identifies the document within its proposition.
func (d Document) Key() string { return d.Tab + "." + d.DocID }

type DocumentRepository interface {
	// GetDocument returns ErrDocumentNotFound when no placeholder matches.
	GetDocument(propositionID, key string) (Document, error)
	ListDocuments(propositionID string) ([]Document, error)
	SaveDocuments(propositionID string, docs []Document) error
	DeleteDocument(propositionID, key string) error
}

// ProfileSnapshot is the view of the application the reset pass derives
// required documents from.
type ProfileSnapshot struct {
	CurriculumFiles          []string
	SpecificAnswers          map[string]string
	SecondaryStudiesComplete bool
	// experience UUID -> label, as returned by IncompleteExperiences
	IncompleteExperiences map[string]string
}

// DocumentRequirement describes one document the application form may demand.
// Missing reports whether the snapshot still lacks it.
type DocumentRequirement struct {
	Tab     string
	DocID   string
	Label   string
	Missing func(ProfileSnapshot) bool
}

// StandardRequirements is the form-driven document schema shared by all
// admission contexts.
func StandardRequirements() []DocumentRequirement {
	return []DocumentRequirement{
		{
			Tab:   TabCurriculum,
			DocID: "curriculum",
			Label: "Curriculum vitae",
			Missing: func(s ProfileSnapshot) bool {
				return len(s.CurriculumFiles) == 0
			},
		},
		{
			Tab:   TabSecondaryStudies,
			DocID: "diplome_etudes_secondaires",
			Label: "Secondary studies diploma",
			Missing: func(s ProfileSnapshot) bool {
				return !s.SecondaryStudiesComplete
			},
		},
	}
}

// ResetDocuments recomputes the to-be-requested placeholders of a proposition
// from the profile snapshot:
//   - placeholders already requested, received or analysed are untouched;
//   - to-be-requested placeholders whose requirement is now fulfilled (or no
//     longer applies) are dropped;
//   - a placeholder is created for each newly missing requirement.
//
// Running it twice on the same snapshot yields the same set.
func ResetDocuments(propositionID string, existing []Document, reqs []DocumentRequirement, snap ProfileSnapshot) []Document {
	missing := make(map[string]DocumentRequirement)
	for _, req := range reqs {
		if req.Missing(snap) {
			missing[req.Tab+"."+req.DocID] = req
		}
	}
	for uuid, label := range snap.IncompleteExperiences {
		docID := "experience." + uuid
		missing[TabCurriculum+"."+docID] = DocumentRequirement{
			Tab:   TabCurriculum,
			DocID: docID,
			Label: label,
		}
	}

	out := make([]Document, 0, len(existing)+len(missing))
	for _, doc := range existing {
		if doc.Status != DocToRequest {
			out = append(out, doc)
			delete(missing, doc.Key())
			continue
		}
		if req, ok := missing[doc.Key()]; ok {
			doc.Label = req.Label
			out = append(out, doc)
			delete(missing, doc.Key())
		}
		// no longer missing: placeholder dropped
	}
	for _, req := range missing {
		out = append(out, Document{
			PropositionID: propositionID,
			Tab:           req.Tab,
			DocID:         req.DocID,
			Label:         req.Label,
			Type:          DocTypeNonFree,
			Status:        DocToRequest,
		})
	}
	return out
}

// RequestDocument marks a to-be-requested placeholder as requested from the
// applicant.
func RequestDocument(doc *Document, requester, reason string, reqStatus RequestStatus, deadline *time.Time, now time.Time) error {
	if doc.Status != DocToRequest {
		return NewDocumentNotRequestableError()
	}
	doc.Status = DocRequested
	doc.Requester = requester
	doc.Reason = reason
	doc.RequestStatus = reqStatus
	doc.RequestedAt = &now
	doc.DeadlineAt = deadline
	return nil
}

// CancelDocumentRequest reverts a requested placeholder to the to-be-requested
// state.
func CancelDocumentRequest(doc *Document) error {
	if doc.Status != DocRequested {
		return NewDocumentNotRequestedError()
	}
	doc.Status = DocToRequest
	doc.Requester = ""
	doc.Reason = ""
	doc.RequestStatus = ""
	doc.RequestedAt = nil
	doc.DeadlineAt = nil
	return nil
}

// CompleteDocument records the applicant's upload against a requested
// placeholder.
func CompleteDocument(doc *Document, now time.Time) error {
	if doc.Status != DocRequested {
		return NewDocumentNotRequestedError()
	}
	doc.Status = DocCompletedAfterRequest
	doc.CompletedAt = &now
	return nil
}
