package doctorate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/udahili/core"
)

func newSignedGroup(t *testing.T) *Group {
	t.Helper()
	group := NewGroup("prop-1")
	require.NoError(t, group.AddMember("promoter-1", RolePromoter, true, false))
	require.NoError(t, group.AddMember("promoter-2", RolePromoter, false, true))
	require.NoError(t, group.AddMember("ca-1", RoleCaMember, true, false))
	return group
}

func TestGroup_AddMember(t *testing.T) {
	group := NewGroup("prop-1")

	require.NoError(t, group.AddMember("promoter-1", RolePromoter, true, false))
	assert.Len(t, group.Promoters(), 1)

	t.Run("duplicates rejected", func(t *testing.T) {
		err := group.AddMember("promoter-1", RoleCaMember, true, false)
		assert.Equal(t, ErrAlreadyMember, err)
	})

	t.Run("unknown person must be flagged external", func(t *testing.T) {
		err := group.AddMember("ghost", RolePromoter, false, false)
		assert.Equal(t, ErrExternalDetailsNeeded, err)
		assert.NoError(t, group.AddMember("external-1", RolePromoter, false, true))
	})

	t.Run("frozen once signing is in progress", func(t *testing.T) {
		group.InviteToSign()
		assert.Equal(t, ErrSigningInProgressAdd, group.AddMember("late", RoleCaMember, true, false))
		assert.Equal(t, ErrSigningInProgressDrop, group.RemoveMember("promoter-1"))
	})
}

func TestGroup_DesignateReferencePromoter(t *testing.T) {
	group := newSignedGroup(t)

	require.NoError(t, group.DesignateReferencePromoter("promoter-1"))
	ref := group.ReferencePromoter()
	require.NotNil(t, ref)
	assert.Equal(t, "promoter-1", ref.Matricule)

	// designating another promoter moves the flag
	require.NoError(t, group.DesignateReferencePromoter("promoter-2"))
	assert.Equal(t, "promoter-2", group.ReferencePromoter().Matricule)
	first, err := group.Find("promoter-1")
	require.NoError(t, err)
	assert.False(t, first.IsReference)

	// a CA member cannot be the reference promoter
	assert.Equal(t, ErrNotAPromoter, group.DesignateReferencePromoter("ca-1"))

	// unknown identifier
	assert.Equal(t, ErrSignatoryNotFound, group.DesignateReferencePromoter("ghost"))
}

func TestGroup_SignatureLifecycle(t *testing.T) {
	now := time.Now().UTC()

	t.Run("approval requires an invitation", func(t *testing.T) {
		group := newSignedGroup(t)
		assert.Equal(t, ErrNotInvited, group.Approve("promoter-1", "", now))

		group.InviteToSign()
		require.NoError(t, group.Approve("promoter-1", "  fine by me  ", now))
		member, err := group.Find("promoter-1")
		require.NoError(t, err)
		assert.Equal(t, SignatureApproved, member.State)
		assert.Equal(t, "fine by me", member.Comment)
		require.NotNil(t, member.DecidedAt)
	})

	t.Run("approve by pdf keeps the scanned file", func(t *testing.T) {
		group := newSignedGroup(t)
		group.InviteToSign()
		require.NoError(t, group.ApproveByPdf("ca-1", "signature.pdf", now))
		member, err := group.Find("ca-1")
		require.NoError(t, err)
		assert.Equal(t, SignatureApproved, member.State)
		assert.Equal(t, "signature.pdf", member.PdfFile)
	})

	t.Run("promoter refusal resets every other signature", func(t *testing.T) {
		group := newSignedGroup(t)
		group.InviteToSign()
		require.NoError(t, group.Approve("promoter-2", "", now))
		require.NoError(t, group.Approve("ca-1", "", now))

		require.NoError(t, group.Decline("promoter-1", "not my field", now))

		// the whole round is voided; the decliner's comment survives
		for _, matricule := range []string{"promoter-1", "promoter-2", "ca-1"} {
			member, err := group.Find(matricule)
			require.NoError(t, err)
			assert.Equal(t, SignatureNotInvited, member.State, matricule)
		}
		declined, err := group.Find("promoter-1")
		require.NoError(t, err)
		assert.Equal(t, "not my field", declined.Comment)
		assert.False(t, group.SigningInProgress())
	})

	t.Run("CA member refusal removes the member", func(t *testing.T) {
		group := newSignedGroup(t)
		group.InviteToSign()
		require.NoError(t, group.Decline("ca-1", "too busy", now))
		_, err := group.Find("ca-1")
		assert.Equal(t, ErrSignatoryNotFound, err)
		assert.Empty(t, group.CaMembers())
	})
}

func TestGroup_VerifyComplete(t *testing.T) {
	now := time.Now().UTC()

	t.Run("composition requirements", func(t *testing.T) {
		group := NewGroup("prop-1")
		err := group.VerifyComposition(false)
		require.Error(t, err)
		errs, ok := err.(core.BusinessErrors)
		require.True(t, ok)
		assert.True(t, errs.Has("PROPOSITION-19"))
		assert.True(t, errs.Has("PROPOSITION-20"))
	})

	t.Run("cotutelle needs an external promoter", func(t *testing.T) {
		group := NewGroup("prop-1")
		require.NoError(t, group.AddMember("promoter-1", RolePromoter, true, false))
		require.NoError(t, group.AddMember("ca-1", RoleCaMember, true, false))

		err := group.VerifyComposition(true)
		require.Error(t, err)
		assert.True(t, err.(core.BusinessErrors).Has("PROPOSITION-21"))

		require.NoError(t, group.AddMember("promoter-ext", RolePromoter, false, true))
		assert.NoError(t, group.VerifyComposition(true))
	})

	t.Run("every signature must be in", func(t *testing.T) {
		group := newSignedGroup(t)
		group.InviteToSign()
		require.NoError(t, group.Approve("promoter-1", "", now))

		err := group.VerifyComplete(false)
		require.Error(t, err)
		assert.True(t, err.(core.BusinessErrors).Has("PROPOSITION-18"))

		require.NoError(t, group.Approve("promoter-2", "", now))
		require.NoError(t, group.Approve("ca-1", "", now))
		assert.NoError(t, group.VerifyComplete(false))
	})
}
