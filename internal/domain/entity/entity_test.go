package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

var testNow = time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)

func newProposal() *Proposal {
	return &Proposal{
		ID:          uuid.New(),
		Kind:        valueobject.KindRFP,
		Title:       "City Parks RFP",
		CompanyMail: "owner@acme.test",
		Status:      "In Progress",
		MaxEditors:  2,
		MaxViewers:  1,
	}
}

func TestProposal_SoftDeleteAndRestore(t *testing.T) {
	p := newProposal()
	actor := uuid.New()

	require.NoError(t, p.SoftDelete(actor, testNow, 48*time.Hour))
	assert.Equal(t, StateDeleted, p.State())
	require.NotNil(t, p.RestoreBy)
	assert.Equal(t, testNow.Add(48*time.Hour), *p.RestoreBy)
	assert.Equal(t, actor, *p.DeletedBy)

	err := p.SoftDelete(actor, testNow, time.Hour)
	assert.True(t, apperror.IsValidation(err))

	later := testNow.Add(time.Hour)
	require.NoError(t, p.Restore(actor, later))
	assert.Equal(t, StateActive, p.State())
	assert.Nil(t, p.RestoreBy)
	assert.Nil(t, p.DeletedAt)
	assert.Nil(t, p.DeletedBy)
	assert.Equal(t, later, *p.RestoredAt)
	assert.Equal(t, "In Progress", p.Status)
	assert.Equal(t, "City Parks RFP", p.Title)

	assert.True(t, apperror.IsValidation(p.Restore(actor, later)))
}

func TestProposal_ApplyUpdateReportsRealChanges(t *testing.T) {
	p := newProposal()
	deadline := testNow.Add(72 * time.Hour)
	p.Deadline = &deadline

	same := deadline
	status := "In Progress"
	change := p.ApplyUpdate(ProposalPatch{Deadline: &same, Status: &status}, testNow)
	assert.False(t, change.DeadlineChanged)
	assert.False(t, change.StatusChanged)
	assert.True(t, p.UpdatedAt.IsZero())

	submitted := "Submitted"
	sub := testNow
	change = p.ApplyUpdate(ProposalPatch{SubmittedAt: &sub, Status: &submitted}, testNow)
	assert.True(t, change.SubmittedAtChanged)
	assert.True(t, change.StatusChanged)
	assert.Equal(t, "In Progress", change.OldStatus)
	assert.Equal(t, "Submitted", change.NewStatus)
	assert.Equal(t, testNow, p.UpdatedAt)
}

func TestProposal_AccessChecks(t *testing.T) {
	p := newProposal()
	editor, viewer, stranger := uuid.New(), uuid.New(), uuid.New()
	p.Collaborators = Collaborators{Editors: []uuid.UUID{editor}, Viewers: []uuid.UUID{viewer}}

	owner := Actor{ID: uuid.New(), Role: valueobject.RoleCompany, Email: "owner@acme.test"}
	sameMailEmployee := Actor{ID: uuid.New(), Role: valueobject.RoleEmployee, Email: "owner@acme.test"}

	assert.True(t, p.IsOwnedBy(owner))
	assert.False(t, p.IsOwnedBy(sameMailEmployee))

	assert.True(t, p.CanBeMutatedBy(Actor{ID: editor}, false))
	assert.True(t, p.CanBeMutatedBy(Actor{ID: viewer}, true))
	assert.False(t, p.CanBeMutatedBy(Actor{ID: viewer}, false))
	assert.False(t, p.CanBeMutatedBy(Actor{ID: stranger}, true))

	assert.True(t, p.CanBeReadBy(Actor{ID: viewer}))
	assert.False(t, p.CanBeReadBy(Actor{ID: stranger}))
}

func TestProposal_ReplaceCollaboratorsRespectsCapacity(t *testing.T) {
	p := newProposal()
	prior := []uuid.UUID{uuid.New()}
	p.Collaborators.Editors = prior

	err := p.ReplaceCollaborators([]uuid.UUID{uuid.New(), uuid.New(), uuid.New()}, nil, testNow)
	assert.True(t, apperror.Is(err, apperror.ErrCodeCapacityExceeded))
	assert.Equal(t, prior, p.Collaborators.Editors)

	p.MaxViewers = 0
	require.NoError(t, p.ReplaceCollaborators(nil, nil, testNow))
	assert.Empty(t, p.Collaborators.Editors)
	assert.NotNil(t, p.Collaborators.Editors)
}

func TestCompanyProfile_SyncAndRemove(t *testing.T) {
	p := newProposal()
	other := newProposal()
	other.Title = "Library Grant"
	id := p.ID

	company := &CompanyProfile{
		Proposals: []ProposalSummary{
			{Title: "Library Grant", Status: "Draft"},
			{ProposalID: &id, Title: "renamed in profile", Status: "In Progress"},
		},
		Deadlines: []DeadlineSummary{
			{Kind: valueobject.KindGrant, Title: p.Title, Status: "In Progress"},
			{Kind: valueobject.KindRFP, Title: p.Title, Status: "In Progress"},
			{Kind: valueobject.KindRFP, Title: p.Title, Status: "In Progress"},
		},
	}

	deadline := testNow.Add(24 * time.Hour)
	p.Deadline = &deadline
	p.Status = "Submitted"
	touched := company.SyncProposal(p, ProposalChange{StatusChanged: true, DeadlineChanged: true})
	require.True(t, touched)

	assert.Equal(t, "Draft", company.Proposals[0].Status)
	assert.Equal(t, "Submitted", company.Proposals[1].Status)
	assert.Equal(t, "In Progress", company.Deadlines[0].Status, "other kind untouched")
	assert.Equal(t, "Submitted", company.Deadlines[1].Status)
	assert.Equal(t, deadline, *company.Deadlines[1].DueDate)
	assert.Equal(t, "In Progress", company.Deadlines[2].Status, "only the first match is synced")

	assert.False(t, company.SyncProposal(other, ProposalChange{DeadlineChanged: true}))

	removed := company.RemoveProposal(p)
	assert.Equal(t, 3, removed)
	require.Len(t, company.Proposals, 1)
	assert.Equal(t, "Library Grant", company.Proposals[0].Title)
	require.Len(t, company.Deadlines, 1)
	assert.Equal(t, valueobject.KindGrant, company.Deadlines[0].Kind)
}
