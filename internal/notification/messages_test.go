package notification

import (
	"fmt"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

func renderJob(job Job) []byte {
	return []byte(fmt.Sprintf("Subject: %s\nPriority: %d\n\n%s", job.Subject, job.Priority, job.Body))
}

func TestBuildJob_Golden(t *testing.T) {
	restoreBy := time.Date(2026, 11, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event Event
	}{
		{
			name: "soft_deleted_rfp",
			event: Event{
				Type:      TypeProposalDeleted,
				Kind:      valueobject.KindRFP,
				Title:     "City Lights RFP",
				RestoreBy: &restoreBy,
			},
		},
		{
			name: "soft_deleted_grant_no_window",
			event: Event{
				Type:  TypeProposalDeleted,
				Kind:  valueobject.KindGrant,
				Title: "Ocean Research Grant",
			},
		},
		{
			name: "restored_grant",
			event: Event{
				Type:  TypeProposalRestored,
				Kind:  valueobject.KindGrant,
				Title: "Ocean Research Grant",
			},
		},
		{
			name: "purged_rfp",
			event: Event{
				Type:  TypeProposalPurged,
				Kind:  valueobject.KindRFP,
				Title: "City Lights RFP",
			},
		},
		{
			name: "status_changed_rfp",
			event: Event{
				Type:      TypeProposalStatusChanged,
				Kind:      valueobject.KindRFP,
				Title:     "City Lights RFP",
				OldStatus: "In Progress",
				NewStatus: "Submitted",
			},
		},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := BuildJob("owner@acme.test", tt.event)
			require.NoError(t, err)
			require.Equal(t, "owner@acme.test", job.Recipient)
			g.Assert(t, tt.name, renderJob(job))
		})
	}
}

func TestBuildJob_UnknownType(t *testing.T) {
	_, err := BuildJob("owner@acme.test", Event{Type: "proposal_archived"})
	require.Error(t, err)
}
