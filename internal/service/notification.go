package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"mindwell/config"
	"mindwell/internal/domain"
	"mindwell/pkg/metrics"
)

// Темы писем по вариантам. Дата и время подставляются при отправке.
var emailSubjects = map[domain.EmailKind]string{
	domain.EmailKindConfirmation:       "Appointment Confirmed - %s at %s",
	domain.EmailKindReminder:           "Appointment Reminder - %s at %s",
	domain.EmailKindCancellation:       "Appointment Cancelled - %s at %s",
	domain.EmailKindGuestPending:       "Booking Received - Payment Required",
	domain.EmailKindGuestPaid:          "Booking Confirmed - %s at %s",
	domain.EmailKindProfessionalNotice: "New Appointment - %s at %s",
}

var emailBodies = map[domain.EmailKind]string{
	domain.EmailKindConfirmation: `
		<p>Здравствуйте, {{.RecipientName}}!</p>
		<p>Ваша сессия подтверждена.</p>
		<p><b>Специалист:</b> {{.ProfessionalName}}<br>
		<b>Дата:</b> {{.Date}}<br>
		<b>Время:</b> {{.Time}}</p>
		{{if .MeetingLink}}<p>Ссылка на видеовстречу: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{end}}
		{{if .Location}}<p>Адрес: {{.Location}}</p>{{end}}
		<p><a href="{{.DashboardURL}}">Открыть личный кабинет</a></p>`,
	domain.EmailKindReminder: `
		<p>Здравствуйте, {{.RecipientName}}!</p>
		<p>Напоминаем: завтра у вас сессия со специалистом {{.ProfessionalName}}.</p>
		<p><b>Дата:</b> {{.Date}}<br>
		<b>Время:</b> {{.Time}}</p>
		{{if .MeetingLink}}<p>Ссылка на видеовстречу: <a href="{{.MeetingLink}}">{{.MeetingLink}}</a></p>{{end}}
		{{if .Location}}<p>Адрес: {{.Location}}</p>{{end}}`,
	domain.EmailKindCancellation: `
		<p>Здравствуйте, {{.RecipientName}}!</p>
		<p>Сессия {{.Date}} в {{.Time}} отменена{{if .CancelledBy}} ({{.CancelledBy}}){{end}}.</p>
		<p>Вы можете записаться на другое время: <a href="{{.DashboardURL}}">{{.DashboardURL}}</a></p>`,
	domain.EmailKindProfessionalNotice: `
		<p>Здравствуйте, {{.RecipientName}}!</p>
		<p>У вас новая запись на сессию.</p>
		<p><b>Клиент:</b> {{.ClientName}}<br>
		<b>Дата:</b> {{.Date}}<br>
		<b>Время:</b> {{.Time}}<br>
		<b>Формат:</b> {{.Type}}</p>
		<p><a href="{{.DashboardURL}}">Открыть расписание</a></p>`,
}

var guestEmailBodies = map[domain.EmailKind]string{
	domain.EmailKindGuestPending: `
		<p>Здравствуйте, {{.GuestName}}!</p>
		<p>Ваша заявка принята. Номер брони: <b>{{.Reference}}</b>.</p>
		<p>Чтобы подтвердить запись, оплатите сессию ({{.Amount}} {{.Currency}}):</p>
		<p><a href="{{.PaymentURL}}">Перейти к оплате</a></p>`,
	domain.EmailKindGuestPaid: `
		<p>Здравствуйте, {{.GuestName}}!</p>
		<p>Оплата получена, запись подтверждена.</p>
		<p><b>Номер брони:</b> {{.Reference}}<br>
		<b>Дата:</b> {{.Date}}<br>
		<b>Время:</b> {{.Time}}</p>`,
}

type NotificationServiceImpl struct {
	cfg     config.SMTPConfig
	baseURL string
	logger  *zap.Logger
}

func NewNotificationService(cfg config.SMTPConfig, baseURL string, logger *zap.Logger) *NotificationServiceImpl {
	return &NotificationServiceImpl{
		cfg:     cfg,
		baseURL: baseURL,
		logger:  logger,
	}
}

func (s *NotificationServiceImpl) SendAppointmentEmail(ctx context.Context, kind domain.EmailKind, data domain.AppointmentEmailData) error {
	body, ok := emailBodies[kind]
	if !ok {
		return errors.New("неизвестный вариант письма")
	}

	if data.DashboardURL == "" {
		data.DashboardURL = s.baseURL + "/dashboard"
	}

	subject := fmt.Sprintf(emailSubjects[kind], data.Date, data.Time)

	return s.send(ctx, kind, data.RecipientEmail, subject, body, data)
}

func (s *NotificationServiceImpl) SendGuestBookingEmail(ctx context.Context, kind domain.EmailKind, data domain.GuestBookingEmailData) error {
	body, ok := guestEmailBodies[kind]
	if !ok {
		return errors.New("неизвестный вариант письма")
	}

	subject := emailSubjects[kind]
	if strings.Contains(subject, "%s") {
		subject = fmt.Sprintf(subject, data.Date, data.Time)
	}

	return s.send(ctx, kind, data.GuestEmail, subject, body, data)
}

func (s *NotificationServiceImpl) send(_ context.Context, kind domain.EmailKind, to, subject, body string, data interface{}) error {
	tmpl, err := template.New(string(kind)).Parse(body)
	if err != nil {
		s.logger.Error("ошибка разбора шаблона письма", zap.String("kind", string(kind)), zap.Error(err))
		metrics.EmailsSent.WithLabelValues(string(kind), "error").Inc()
		return errors.New("ошибка при отправке письма")
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		s.logger.Error("ошибка рендеринга письма", zap.String("kind", string(kind)), zap.Error(err))
		metrics.EmailsSent.WithLabelValues(string(kind), "error").Inc()
		return errors.New("ошибка при отправке письма")
	}

	// Без SMTP_HOST работаем в dev-режиме: письмо логируется и считается отправленным.
	if !s.cfg.Configured() {
		s.logger.Info("письмо не отправлено (SMTP не настроен)",
			zap.String("kind", string(kind)),
			zap.String("to", to),
			zap.String("subject", subject))
		metrics.EmailsSent.WithLabelValues(string(kind), "skipped").Inc()
		return nil
	}

	msg := buildMessage(s.cfg.From, to, subject, rendered.String())

	auth := smtp.PlainAuth("", s.cfg.User, s.cfg.Pass, s.cfg.Host)
	addr := s.cfg.Host + ":" + s.cfg.Port

	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{to}, msg); err != nil {
		s.logger.Error("ошибка отправки письма",
			zap.String("kind", string(kind)),
			zap.String("to", to),
			zap.Error(err))
		metrics.EmailsSent.WithLabelValues(string(kind), "error").Inc()
		return errors.New("ошибка при отправке письма")
	}

	metrics.EmailsSent.WithLabelValues(string(kind), "sent").Inc()
	return nil
}

const altBoundary = "mindwell-alt-boundary"

// buildMessage собирает письмо multipart/alternative: текстовая версия
// для клиентов без HTML плюс основная HTML-часть.
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=\"" + altBoundary + "\"\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + altBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlToPlainText(htmlBody))
	b.WriteString("\r\n")

	b.WriteString("--" + altBoundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	b.WriteString("\r\n")

	b.WriteString("--" + altBoundary + "--\r\n")
	return []byte(b.String())
}

// htmlToPlainText превращает HTML-версию письма в текстовую: переносы
// вместо <br> и </p>, теги отбрасываются, сущности раскрываются.
func htmlToPlainText(htmlBody string) string {
	breaks := strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n")
	src := breaks.Replace(htmlBody)

	var b strings.Builder
	inTag := false
	for _, r := range src {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}

	lines := strings.Split(html.UnescapeString(b.String()), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}

	return strings.Join(kept, "\n")
}
