package doctorate

import (
	"time"

	"github.com/trezcool/udahili/core"
)

// Role of a supervision group member.
type Role string

const (
	RolePromoter Role = "PROMOTER"
	RoleCaMember Role = "CA_MEMBER"
)

// SignatureState of a supervision group member.
type SignatureState string

const (
	SignatureNotInvited SignatureState = "NOT_INVITED"
	SignatureInvited    SignatureState = "INVITED"
	SignatureApproved   SignatureState = "APPROVED"
	SignatureDeclined   SignatureState = "DECLINED"
)

// Signatory is one member of the supervision group.
type Signatory struct {
	Matricule   string         `json:"matricule"`
	Role        Role           `json:"role"`
	State       SignatureState `json:"state"`
	IsReference bool           `json:"is_reference"`
	IsExternal  bool           `json:"is_external"`
	Comment     string         `json:"comment,omitempty"`
	PdfFile     string         `json:"pdf_file,omitempty"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
}

// Group is the supervision group of a doctoral proposition: its promoters and
// supervision committee (CA) members, with their signature states.
type Group struct {
	PropositionID string       `json:"proposition_id"`
	Signatories   []*Signatory `json:"signatories"`
}

type GroupRepository interface {
	GetGroup(propositionID string) (*Group, error)
	SaveGroup(group *Group) error
}

func NewGroup(propositionID string) *Group {
	return &Group{PropositionID: propositionID}
}

func (g *Group) Promoters() []*Signatory { return g.byRole(RolePromoter) }
func (g *Group) CaMembers() []*Signatory { return g.byRole(RoleCaMember) }

func (g *Group) byRole(role Role) []*Signatory {
	var members []*Signatory
	for _, member := range g.Signatories {
		if member.Role == role {
			members = append(members, member)
		}
	}
	return members
}

// Find returns the member with the given matricule, ErrSignatoryNotFound
// otherwise.
func (g *Group) Find(matricule string) (*Signatory, error) {
	for _, member := range g.Signatories {
		if member.Matricule == matricule {
			return member, nil
		}
	}
	return nil, ErrSignatoryNotFound
}

// SigningInProgress reports whether any member has been invited or has
// already decided.
func (g *Group) SigningInProgress() bool {
	for _, member := range g.Signatories {
		if member.State != SignatureNotInvited {
			return true
		}
	}
	return false
}

// AddMember adds a promoter or CA member to the group. The member must be
// internal or explicitly flagged external; the composition is frozen while
// signing is in progress.
func (g *Group) AddMember(matricule string, role Role, internal, external bool) error {
	if g.SigningInProgress() {
		return ErrSigningInProgressAdd
	}
	if !internal && !external {
		return ErrExternalDetailsNeeded
	}
	if _, err := g.Find(matricule); err == nil {
		return ErrAlreadyMember
	}
	g.Signatories = append(g.Signatories, &Signatory{
		Matricule:  matricule,
		Role:       role,
		State:      SignatureNotInvited,
		IsExternal: external,
	})
	return nil
}

// RemoveMember drops a member; the composition is frozen while signing is in
// progress.
func (g *Group) RemoveMember(matricule string) error {
	if g.SigningInProgress() {
		return ErrSigningInProgressDrop
	}
	return g.drop(matricule)
}

func (g *Group) drop(matricule string) error {
	for i, member := range g.Signatories {
		if member.Matricule == matricule {
			g.Signatories = append(g.Signatories[:i], g.Signatories[i+1:]...)
			return nil
		}
	}
	return ErrSignatoryNotFound
}

// DesignateReferencePromoter marks one promoter as the reference promoter;
// invoking it with a non-promoter identifier fails.
func (g *Group) DesignateReferencePromoter(matricule string) error {
	member, err := g.Find(matricule)
	if err != nil {
		return err
	}
	if member.Role != RolePromoter {
		return ErrNotAPromoter
	}
	for _, promoter := range g.Promoters() {
		promoter.IsReference = promoter.Matricule == matricule
	}
	return nil
}

// ReferencePromoter returns the designated reference promoter, nil when none.
func (g *Group) ReferencePromoter() *Signatory {
	for _, promoter := range g.Promoters() {
		if promoter.IsReference {
			return promoter
		}
	}
	return nil
}

// InviteToSign invites every member that has not been invited yet.
func (g *Group) InviteToSign() []*Signatory {
	var invited []*Signatory
	for _, member := range g.Signatories {
		if member.State == SignatureNotInvited {
			member.State = SignatureInvited
			invited = append(invited, member)
		}
	}
	return invited
}

// PendingSignatories returns the members invited but yet to decide.
func (g *Group) PendingSignatories() []*Signatory {
	var pending []*Signatory
	for _, member := range g.Signatories {
		if member.State == SignatureInvited {
			pending = append(pending, member)
		}
	}
	return pending
}

// Approve records a member's approval; only invited members may decide.
func (g *Group) Approve(matricule, comment string, now time.Time) error {
	member, err := g.Find(matricule)
	if err != nil {
		return err
	}
	if member.State != SignatureInvited {
		return ErrNotInvited
	}
	member.State = SignatureApproved
	member.Comment = core.CleanString(comment)
	member.DecidedAt = &now
	return nil
}

// ApproveByPdf records an approval backed by a scanned signature document.
func (g *Group) ApproveByPdf(matricule, pdfFile string, now time.Time) error {
	if err := g.Approve(matricule, "", now); err != nil {
		return err
	}
	member, _ := g.Find(matricule)
	member.PdfFile = pdfFile
	return nil
}

// Decline records a member's refusal. A promoter refusal voids the signing
// round: every signature is reset, only the decliner's comment is kept. A CA
// member refusal removes the member from the group.
func (g *Group) Decline(matricule, comment string, now time.Time) error {
	member, err := g.Find(matricule)
	if err != nil {
		return err
	}
	if member.State != SignatureInvited {
		return ErrNotInvited
	}
	member.State = SignatureDeclined
	member.Comment = core.CleanString(comment)
	member.DecidedAt = &now

	if member.Role == RolePromoter {
		for _, other := range g.Signatories {
			other.State = SignatureNotInvited
			if other != member {
				other.Comment = ""
				other.PdfFile = ""
				other.DecidedAt = nil
			}
		}
		return nil
	}
	return g.drop(matricule)
}

// VerifyComposition checks the group can be sent out for signatures.
func (g *Group) VerifyComposition(cotutelle bool) error {
	var errs core.BusinessErrors
	if len(g.Promoters()) == 0 {
		errs = append(errs, ErrPromoterRequired)
	}
	if len(g.CaMembers()) == 0 {
		errs = append(errs, ErrCaMemberRequired)
	}
	if cotutelle && !g.hasExternalPromoter() {
		errs = append(errs, ErrExternalPromoterNeeded)
	}
	return errs.ErrOrNil()
}

// VerifyComplete checks the group is fully signed before submission.
func (g *Group) VerifyComplete(cotutelle bool) error {
	var errs core.BusinessErrors
	errs.Append(g.VerifyComposition(cotutelle))
	for _, member := range g.Signatories {
		if member.State != SignatureApproved {
			errs = append(errs, ErrSignaturesIncomplete)
			break
		}
	}
	return errs.ErrOrNil()
}

func (g *Group) hasExternalPromoter() bool {
	for _, promoter := range g.Promoters() {
		if promoter.IsExternal {
			return true
		}
	}
	return false
}
