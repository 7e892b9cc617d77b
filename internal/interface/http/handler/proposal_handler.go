package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/proposal-workspace/internal/domain/entity"
	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
	"github.com/ignatzorin/proposal-workspace/internal/interface/http/dto"
	"github.com/ignatzorin/proposal-workspace/internal/interface/http/response"
	"github.com/ignatzorin/proposal-workspace/internal/usecase/lifecycle"
)

// LifecycleService: операции координатора, доступные через HTTP.
type LifecycleService interface {
	SoftDelete(ctx context.Context, kind valueobject.ProposalKind, rawIDs []string, actor entity.Actor) ([]*entity.Proposal, error)
	Restore(ctx context.Context, kind valueobject.ProposalKind, rawID string, actor entity.Actor) (*entity.Proposal, error)
	Purge(ctx context.Context, kind valueobject.ProposalKind, rawID string, actor entity.Actor) error
	ListDeleted(ctx context.Context, kind valueobject.ProposalKind, actor entity.Actor) ([]lifecycle.DeletedProposal, error)
	Update(ctx context.Context, kind valueobject.ProposalKind, rawID string, patch entity.ProposalPatch, actor entity.Actor) (*entity.Proposal, error)
	SetCollaborators(ctx context.Context, kind valueobject.ProposalKind, rawID string, employeeIDs []string, actor entity.Actor) (*entity.Proposal, error)
	Get(ctx context.Context, kind valueobject.ProposalKind, rawID string, actor entity.Actor) (*entity.Proposal, error)
}

type ProposalHandler struct {
	lifecycle LifecycleService
}

func NewProposalHandler(lifecycle LifecycleService) *ProposalHandler {
	return &ProposalHandler{lifecycle: lifecycle}
}

// SoftDelete обрабатывает POST /api/proposals/:kind/delete.
func (h *ProposalHandler) SoftDelete(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	var req dto.SoftDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, badRequest(err))
		return
	}

	deleted, err := h.lifecycle.SoftDelete(c.Request.Context(), kind, req.IDs, actor)
	if err != nil {
		abort(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponses(deleted))
}

// Restore обрабатывает POST /api/proposals/:kind/:id/restore.
func (h *ProposalHandler) Restore(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	restored, err := h.lifecycle.Restore(c.Request.Context(), kind, c.Param("id"), actor)
	if err != nil {
		abort(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(restored))
}

// Purge обрабатывает DELETE /api/proposals/:kind/:id.
func (h *ProposalHandler) Purge(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	if err := h.lifecycle.Purge(c.Request.Context(), kind, c.Param("id"), actor); err != nil {
		abort(c, err)
		return
	}

	response.NoContent(c)
}

// ListDeleted обрабатывает GET /api/proposals/:kind/deleted.
func (h *ProposalHandler) ListDeleted(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	items, err := h.lifecycle.ListDeleted(c.Request.Context(), kind, actor)
	if err != nil {
		abort(c, err)
		return
	}

	response.Success(c, dto.ToDeletedProposalResponses(items))
}

// Update обрабатывает PATCH /api/proposals/:kind/:id.
func (h *ProposalHandler) Update(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	var req dto.UpdateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, badRequest(err))
		return
	}

	patch, err := lifecycle.ParsePatch(req.Deadline, req.SubmittedAt, req.Status)
	if err != nil {
		abort(c, err)
		return
	}

	updated, err := h.lifecycle.Update(c.Request.Context(), kind, c.Param("id"), patch, actor)
	if err != nil {
		abort(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(updated))
}

// SetCollaborators обрабатывает PUT /api/proposals/:kind/:id/collaborators.
func (h *ProposalHandler) SetCollaborators(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	var req dto.SetCollaboratorsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, badRequest(err))
		return
	}

	updated, err := h.lifecycle.SetCollaborators(c.Request.Context(), kind, c.Param("id"), req.EmployeeIDs, actor)
	if err != nil {
		abort(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(updated))
}

// Get обрабатывает GET /api/proposals/:kind/:id.
func (h *ProposalHandler) Get(c *gin.Context) {
	actor, kind, ok := requestContext(c)
	if !ok {
		return
	}

	p, err := h.lifecycle.Get(c.Request.Context(), kind, c.Param("id"), actor)
	if err != nil {
		abort(c, err)
		return
	}

	response.Success(c, dto.ToProposalResponse(p))
}
