package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/Leganyst/reservation-platform/internal/model"
)

// Message — готовое к отправке письмо.
type Message struct {
	ToEmail string
	ToName  string
	Subject string
	HTML    string
}

const layout = `<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; background-color: #f8f9fa; padding: 24px;">
<table role="presentation" style="max-width: 600px; margin: 0 auto; background: #ffffff; border-radius: 8px; padding: 24px;">
<tr><td>
<p>Bonjour {{.RecipientName}},</p>
{{block "body" .}}{{end}}
<table style="margin-top: 16px; border-collapse: collapse;">
<tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Ressource</td><td><strong>{{.ResourceName}}</strong></td></tr>
<tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Créneau</td><td>{{.When}}</td></tr>
{{if .Notes}}<tr><td style="padding: 4px 12px 4px 0; color: #6b7280;">Notes</td><td>{{.Notes}}</td></tr>{{end}}
</table>
<p style="margin-top: 24px; color: #6b7280; font-size: 12px;">Réservation {{.ReservationID}}</p>
</td></tr>
</table>
</body>
</html>`

var bodies = map[Kind]string{
	KindNewRequest: `<p>Vous avez reçu une nouvelle demande de réservation.</p>
<p>Demandeur : <strong>{{.CounterpartName}}</strong>
{{if .CounterpartEmail}}<br>E-mail : {{.CounterpartEmail}}{{end}}
{{if .CounterpartPhone}}<br>Téléphone : {{.CounterpartPhone}}{{end}}</p>
<p>Confirmez ou refusez la demande depuis votre tableau de bord.</p>`,

	KindRequestReceived: `<p>Votre demande de réservation est bien enregistrée.</p>
<p>Le propriétaire va l'examiner, vous recevrez un e-mail dès qu'il aura répondu.</p>`,

	KindStatusChanged: `{{if .Confirmed}}<p>Bonne nouvelle ! Votre réservation a été <strong>acceptée</strong> par le propriétaire de la ressource.</p>
{{else}}<p>Malheureusement, votre demande de réservation a été <strong>refusée</strong> par le propriétaire.</p>{{end}}`,

	KindCanceled: `<p>La demande de réservation de <strong>{{.CounterpartName}}</strong> a été annulée.</p>
<p>Le créneau est de nouveau disponible.</p>`,
}

// Renderer собирает письма по уведомлениям.
type Renderer struct {
	tmpl map[Kind]*template.Template
	loc  *time.Location
}

// NewRenderer компилирует шаблоны; loc — часовой пояс, в котором показывается время.
func NewRenderer(loc *time.Location) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	r := &Renderer{tmpl: make(map[Kind]*template.Template, len(bodies)), loc: loc}
	for kind, body := range bodies {
		t, err := template.New(string(kind)).Parse(layout)
		if err != nil {
			return nil, fmt.Errorf("parse layout: %w", err)
		}
		if t, err = t.New("body").Parse(body); err != nil {
			return nil, fmt.Errorf("parse %s: %w", kind, err)
		}
		r.tmpl[kind] = t
	}
	return r, nil
}

type view struct {
	Notification
	When      string
	Confirmed bool
}

func (r *Renderer) Render(n Notification) (Message, error) {
	t, ok := r.tmpl[n.Kind]
	if !ok {
		return Message{}, fmt.Errorf("no template for %q", n.Kind)
	}

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, string(n.Kind), view{
		Notification: n,
		When:         FormatInterval(n.Start, n.End, r.loc),
		Confirmed:    n.Status == model.ReservationStatusConfirmed,
	})
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", n.Kind, err)
	}

	return Message{
		ToEmail: n.RecipientEmail,
		ToName:  n.RecipientName,
		Subject: subject(n),
		HTML:    buf.String(),
	}, nil
}

func subject(n Notification) string {
	switch n.Kind {
	case KindNewRequest:
		return "Nouvelle demande de réservation pour " + n.ResourceName
	case KindRequestReceived:
		return "Votre demande pour " + n.ResourceName + " est enregistrée"
	case KindStatusChanged:
		if n.Status == model.ReservationStatusConfirmed {
			return "Votre réservation a été acceptée - " + n.ResourceName
		}
		return "Votre réservation a été refusée - " + n.ResourceName
	case KindCanceled:
		return "Annulation de réservation - " + n.ResourceName
	}
	return n.ResourceName
}
