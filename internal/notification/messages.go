package notification

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/ignatzorin/proposal-workspace/internal/domain/valueobject"
)

// Типы уведомлений жизненного цикла; все попадают в полосу по умолчанию.
const (
	TypeProposalDeleted       = "proposal_deleted"
	TypeProposalRestored      = "proposal_restored"
	TypeProposalPurged        = "proposal_purged"
	TypeProposalStatusChanged = "proposal_status_changed"
)

// Event: зафиксированное событие жизненного цикла, из которого строится задание.
type Event struct {
	Type      string
	Kind      valueobject.ProposalKind
	Title     string
	OldStatus string
	NewStatus string
	RestoreBy *time.Time
}

var subjects = map[string]string{
	TypeProposalDeleted:       "%s перемещено в корзину: %s",
	TypeProposalRestored:      "%s восстановлено: %s",
	TypeProposalPurged:        "%s удалено безвозвратно: %s",
	TypeProposalStatusChanged: "%s: статус изменён (%s)",
}

var bodies = template.Must(template.New("body").Funcs(template.FuncMap{
	"date": func(t *time.Time) string { return t.UTC().Format(time.DateOnly) },
}).Parse(`
{{- define "proposal_deleted" -}}
{{.Label}} «{{.Title}}» перемещено в корзину.
{{if .RestoreBy}}Восстановить его можно до {{date .RestoreBy}}.{{else}}Срок восстановления не задан.{{end}}
{{end -}}
{{- define "proposal_restored" -}}
{{.Label}} «{{.Title}}» восстановлено из корзины и снова доступно команде.
{{end -}}
{{- define "proposal_purged" -}}
{{.Label}} «{{.Title}}» удалено безвозвратно вместе с черновиком, трекером и событиями календаря.
{{end -}}
{{- define "proposal_status_changed" -}}
Статус {{.LabelLower}} «{{.Title}}» изменён: {{if .OldStatus}}{{.OldStatus}}{{else}}без статуса{{end}} → {{.NewStatus}}.
{{end -}}
`))

type bodyData struct {
	Event
	Label      string
	LabelLower string
}

// BuildJob собирает задание для получателя; тип события задаёт тему и текст.
func BuildJob(recipient string, ev Event) (Job, error) {
	label := kindLabel(ev.Kind)

	subjectFormat, ok := subjects[ev.Type]
	if !ok {
		return Job{}, fmt.Errorf("notification: неизвестный тип события %q", ev.Type)
	}
	var subject string
	if ev.Type == TypeProposalStatusChanged {
		subject = fmt.Sprintf(subjectFormat, ev.Title, ev.NewStatus)
	} else {
		subject = fmt.Sprintf(subjectFormat, label, ev.Title)
	}

	var body bytes.Buffer
	data := bodyData{Event: ev, Label: label, LabelLower: kindLabelGenitive(ev.Kind)}
	if err := bodies.ExecuteTemplate(&body, ev.Type, data); err != nil {
		return Job{}, fmt.Errorf("notification: шаблон %s: %w", ev.Type, err)
	}

	return Job{
		Recipient: recipient,
		Subject:   subject,
		Body:      body.String(),
		Type:      ev.Type,
		Priority:  PriorityFor(ev.Type),
	}, nil
}

func kindLabel(kind valueobject.ProposalKind) string {
	switch kind {
	case valueobject.KindGrant:
		return "Грантовое предложение"
	case valueobject.KindRFP:
		return "Предложение по RFP"
	default:
		return "Предложение"
	}
}

func kindLabelGenitive(kind valueobject.ProposalKind) string {
	switch kind {
	case valueobject.KindGrant:
		return "грантового предложения"
	case valueobject.KindRFP:
		return "предложения по RFP"
	default:
		return strings.ToLower(kindLabel(kind))
	}
}
