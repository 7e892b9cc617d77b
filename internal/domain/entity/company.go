package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

// ProposalSummary: денормализованная запись о предложении в профиле компании.
// ProposalID может отсутствовать у старых записей, тогда сопоставление идёт по названию.
type ProposalSummary struct {
	ProposalID *uuid.UUID               `json:"proposalId,omitempty"`
	Kind       valueobject.ProposalKind `json:"kind,omitempty"`
	Title      string                   `json:"title"`
	Status     string                   `json:"status"`
}

type DeadlineSummary struct {
	ProposalID *uuid.UUID               `json:"proposalId,omitempty"`
	Kind       valueobject.ProposalKind `json:"kind,omitempty"`
	Title      string                   `json:"title"`
	Status     string                   `json:"status"`
	DueDate    *time.Time               `json:"dueDate,omitempty"`
}

type Employee struct {
	EmployeeID uuid.UUID `json:"employeeId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       string    `json:"role"`
}

type CompanyProfile struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Proposals []ProposalSummary
	Deadlines []DeadlineSummary
	Employees []Employee
	UpdatedAt time.Time
}

func (c *CompanyProfile) HasEmployee(employeeID uuid.UUID) bool {
	for _, e := range c.Employees {
		if e.EmployeeID == employeeID {
			return true
		}
	}
	return false
}

// SyncProposal переносит актуальный статус и срок предложения в денормализованные списки.
// Обновляется первая подходящая запись каждого списка; отсутствие записи не ошибка.
func (c *CompanyProfile) SyncProposal(p *Proposal, change ProposalChange) bool {
	touched := false

	for i := range c.Deadlines {
		d := &c.Deadlines[i]
		if !summaryMatches(d.ProposalID, d.Kind, d.Title, p) {
			continue
		}
		if change.StatusChanged {
			d.Status = p.Status
		}
		if change.DeadlineChanged && p.Deadline != nil {
			due := *p.Deadline
			d.DueDate = &due
		}
		touched = true
		break
	}

	if change.StatusChanged {
		for i := range c.Proposals {
			s := &c.Proposals[i]
			if !summaryMatches(s.ProposalID, s.Kind, s.Title, p) {
				continue
			}
			s.Status = p.Status
			touched = true
			break
		}
	}

	return touched
}

// RemoveProposal удаляет из обоих списков все записи, относящиеся к предложению.
func (c *CompanyProfile) RemoveProposal(p *Proposal) int {
	removed := 0

	proposals := c.Proposals[:0]
	for _, s := range c.Proposals {
		if summaryMatches(s.ProposalID, s.Kind, s.Title, p) {
			removed++
			continue
		}
		proposals = append(proposals, s)
	}
	c.Proposals = proposals

	deadlines := c.Deadlines[:0]
	for _, d := range c.Deadlines {
		if summaryMatches(d.ProposalID, d.Kind, d.Title, p) {
			removed++
			continue
		}
		deadlines = append(deadlines, d)
	}
	c.Deadlines = deadlines

	return removed
}

// summaryMatches: запись с идентификатором сопоставляется строго по нему,
// запись без идентификатора сопоставляется по названию (и виду, если он указан).
func summaryMatches(id *uuid.UUID, kind valueobject.ProposalKind, title string, p *Proposal) bool {
	if id != nil {
		return *id == p.ID
	}
	if kind != "" && kind != p.Kind {
		return false
	}
	return title == p.Title
}
