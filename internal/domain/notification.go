package domain

// Варианты писем. Все шесть рассылок рендерятся одним шаблонизатором,
// вариант определяет тему и набор полей.
type EmailKind string

const (
	EmailKindConfirmation       EmailKind = "confirmation"
	EmailKindReminder           EmailKind = "reminder"
	EmailKindCancellation       EmailKind = "cancellation"
	EmailKindGuestPending       EmailKind = "guest_pending"
	EmailKindGuestPaid          EmailKind = "guest_paid"
	EmailKindProfessionalNotice EmailKind = "professional_notice"
)

type AppointmentEmailData struct {
	RecipientName    string
	RecipientEmail   string
	ClientName       string
	ProfessionalName string
	Date             string
	Time             string
	Type             AppointmentType
	TherapyType      TherapyType
	MeetingLink      string
	Location         string
	CancelledBy      string
	DashboardURL     string
}

type GuestBookingEmailData struct {
	GuestName  string
	GuestEmail string
	Reference  string
	Date       string
	Time       string
	Amount     float64
	Currency   string
	PaymentURL string
}
