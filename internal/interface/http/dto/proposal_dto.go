package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/usecase/lifecycle"
)

type SoftDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// UpdateProposalRequest: частичное обновление; отсутствующее поле не меняется.
type UpdateProposalRequest struct {
	Deadline    *string `json:"deadline"`
	SubmittedAt *string `json:"submittedAt"`
	Status      *string `json:"status"`
}

type SetCollaboratorsRequest struct {
	EmployeeIDs []string `json:"employeeIds" binding:"required"`
}

type CollaboratorsResponse struct {
	Owner   uuid.UUID   `json:"owner"`
	Editors []uuid.UUID `json:"editors"`
	Viewers []uuid.UUID `json:"viewers"`
}

type ProposalResponse struct {
	ID            uuid.UUID             `json:"id"`
	Kind          string                `json:"kind"`
	Title         string                `json:"title"`
	CompanyMail   string                `json:"companyMail"`
	Status        string                `json:"status"`
	Deadline      *time.Time            `json:"deadline"`
	SubmittedAt   *time.Time            `json:"submittedAt"`
	IsDeleted     bool                  `json:"isDeleted"`
	DeletedAt     *time.Time            `json:"deletedAt"`
	DeletedBy     *uuid.UUID            `json:"deletedBy"`
	RestoreBy     *time.Time            `json:"restoreBy"`
	RestoredAt    *time.Time            `json:"restoredAt"`
	RestoredBy    *uuid.UUID            `json:"restoredBy"`
	MaxEditors    int                   `json:"maxEditors"`
	MaxViewers    int                   `json:"maxViewers"`
	Collaborators CollaboratorsResponse `json:"collaborators"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

type DeletedProposalResponse struct {
	ProposalResponse
	RestoreCountdown string `json:"restoreCountdown"`
}

func ToProposalResponse(p *entity.Proposal) ProposalResponse {
	return ProposalResponse{
		ID:          p.ID,
		Kind:        p.Kind.String(),
		Title:       p.Title,
		CompanyMail: p.CompanyMail,
		Status:      p.Status,
		Deadline:    p.Deadline,
		SubmittedAt: p.SubmittedAt,
		IsDeleted:   p.IsDeleted,
		DeletedAt:   p.DeletedAt,
		DeletedBy:   p.DeletedBy,
		RestoreBy:   p.RestoreBy,
		RestoredAt:  p.RestoredAt,
		RestoredBy:  p.RestoredBy,
		MaxEditors:  p.MaxEditors,
		MaxViewers:  p.MaxViewers,
		Collaborators: CollaboratorsResponse{
			Owner:   p.Collaborators.Owner,
			Editors: nonNilIDs(p.Collaborators.Editors),
			Viewers: nonNilIDs(p.Collaborators.Viewers),
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func ToProposalResponses(proposals []*entity.Proposal) []ProposalResponse {
	responses := make([]ProposalResponse, 0, len(proposals))
	for _, p := range proposals {
		responses = append(responses, ToProposalResponse(p))
	}
	return responses
}

func ToDeletedProposalResponses(items []lifecycle.DeletedProposal) []DeletedProposalResponse {
	responses := make([]DeletedProposalResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, DeletedProposalResponse{
			ProposalResponse: ToProposalResponse(item.Proposal),
			RestoreCountdown: item.RestoreCountdown,
		})
	}
	return responses
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}
