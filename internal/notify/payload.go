package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Leganyst/reservation-platform/internal/model"
)

// Kind — вид уведомления, совпадает с типом задачи в очереди.
type Kind string

const (
	KindNewRequest      Kind = "reservation:new_request"
	KindRequestReceived Kind = "reservation:request_received"
	KindStatusChanged   Kind = "reservation:status_changed"
	KindCanceled        Kind = "reservation:canceled"
)

// Notification — снимок данных, достаточный для письма без обращения к БД.
type Notification struct {
	Kind             Kind                    `json:"kind"`
	ReservationID    uuid.UUID               `json:"reservation_id"`
	RecipientEmail   string                  `json:"recipient_email"`
	RecipientName    string                  `json:"recipient_name"`
	CounterpartName  string                  `json:"counterpart_name,omitempty"`
	CounterpartEmail string                  `json:"counterpart_email,omitempty"`
	CounterpartPhone string                  `json:"counterpart_phone,omitempty"`
	ResourceName     string                  `json:"resource_name"`
	Start            time.Time               `json:"start"`
	End              time.Time               `json:"end"`
	Status           model.ReservationStatus `json:"status"`
	Notes            string                  `json:"notes,omitempty"`
}

func (n Notification) Marshal() ([]byte, error) { return json.Marshal(n) }

func Unmarshal(b []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(b, &n); err != nil {
		return Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	return n, nil
}

func (n Notification) Validate() error {
	if n.RecipientEmail == "" {
		return fmt.Errorf("notification %s: recipient email is empty", n.Kind)
	}
	return nil
}

// requesterContact — контакты заявителя: снимок из заявки важнее профиля.
func requesterContact(requester *model.User, r *model.Reservation) (name, email, phone string) {
	if requester != nil {
		name, email, phone = requester.DisplayName(), requester.Email, requester.ContactPhone
	}
	if r.RequesterName != "" {
		name = r.RequesterName
	}
	if r.RequesterEmail != "" {
		email = r.RequesterEmail
	}
	if r.RequesterContact != "" {
		phone = r.RequesterContact
	}
	return name, email, phone
}

func resourceName(res *model.Resource) string {
	if res == nil {
		return ""
	}
	return res.Name
}

func base(kind Kind, r *model.Reservation, res *model.Resource) Notification {
	return Notification{
		Kind:          kind,
		ReservationID: r.ID,
		ResourceName:  resourceName(res),
		Start:         r.StartsAt,
		End:           r.EndsAt,
		Status:        r.Status,
		Notes:         r.Notes,
	}
}

func NewRequestNotification(owner, requester *model.User, r *model.Reservation, res *model.Resource) Notification {
	n := base(KindNewRequest, r, res)
	if owner != nil {
		n.RecipientEmail, n.RecipientName = owner.Email, owner.DisplayName()
	}
	n.CounterpartName, n.CounterpartEmail, n.CounterpartPhone = requesterContact(requester, r)
	return n
}

func RequestReceivedNotification(requester *model.User, r *model.Reservation, res *model.Resource) Notification {
	n := base(KindRequestReceived, r, res)
	n.RecipientName, n.RecipientEmail, _ = requesterContact(requester, r)
	return n
}

func StatusChangedNotification(requester *model.User, r *model.Reservation, res *model.Resource, status model.ReservationStatus) Notification {
	n := base(KindStatusChanged, r, res)
	n.Status = status
	n.RecipientName, n.RecipientEmail, _ = requesterContact(requester, r)
	return n
}

func CanceledNotification(owner, requester *model.User, r *model.Reservation, res *model.Resource) Notification {
	n := base(KindCanceled, r, res)
	if owner != nil {
		n.RecipientEmail, n.RecipientName = owner.Email, owner.DisplayName()
	}
	n.CounterpartName, n.CounterpartEmail, n.CounterpartPhone = requesterContact(requester, r)
	return n
}
