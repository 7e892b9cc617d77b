package valueobject

import (
	"strings"

	"github.com/ignatzorin/proposal-workspace/internal/pkg/apperror"
)

// ProposalKind различает два независимо хранимых вида предложений.
type ProposalKind string

const (
	KindRFP   ProposalKind = "rfp"
	KindGrant ProposalKind = "grant"
)

// KindDescriptor описывает, где и как хранится конкретный вид предложения.
// Координатор работает только через дескриптор и не ветвится по виду.
type KindDescriptor struct {
	Kind           ProposalKind
	Label          string
	ProposalTable  string
	DraftTable     string
	TrackerTable   string
	CalendarColumn string
	// StatusEventFollowsSubmission: при смене статуса событие календаря
	// переносится на дату подачи (submittedAt).
	StatusEventFollowsSubmission bool
}

var descriptors = map[ProposalKind]KindDescriptor{
	KindRFP: {
		Kind:                         KindRFP,
		Label:                        "RFP proposal",
		ProposalTable:                "rfp_proposals",
		DraftTable:                   "draft_rfps",
		TrackerTable:                 "proposal_trackers",
		CalendarColumn:               "proposal_id",
		StatusEventFollowsSubmission: true,
	},
	KindGrant: {
		Kind:           KindGrant,
		Label:          "Grant proposal",
		ProposalTable:  "grant_proposals",
		DraftTable:     "draft_grants",
		TrackerTable:   "proposal_trackers",
		CalendarColumn: "grant_proposal_id",
	},
}

// Kinds возвращает все поддерживаемые виды в фиксированном порядке.
func Kinds() []ProposalKind {
	return []ProposalKind{KindRFP, KindGrant}
}

func (k ProposalKind) IsValid() bool {
	_, ok := descriptors[k]
	return ok
}

// Descriptor возвращает дескриптор вида. Для невалидного вида возвращается пустой дескриптор.
func (k ProposalKind) Descriptor() KindDescriptor {
	return descriptors[k]
}

func (k ProposalKind) String() string {
	return string(k)
}

func NewProposalKind(raw string) (ProposalKind, error) {
	k := ProposalKind(strings.ToLower(strings.TrimSpace(raw)))
	if !k.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный вид предложения")
	}
	return k, nil
}
