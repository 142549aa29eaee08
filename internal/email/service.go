package email

import (
	"fmt"
	"net/smtp"
)

// Service handles email sending via SMTP
type Service struct {
	host string
	port string
	from string
}

// NewService creates a new email service
func NewService(host, port, from string) *Service {
	return &Service{
		host: host,
		port: port,
		from: from,
	}
}

// SendBookingRequested notifies the vendor that a new booking is
// waiting for review.
func (s *Service) SendBookingRequested(to, bookingID, total string) error {
	subject := fmt.Sprintf("Nova reserva recebida (#%s)", shortID(bookingID))
	body := BuildBookingRequestedBody(bookingID, total)
	return s.send(to, subject, body)
}

// SendBookingApproved tells the customer the vendor approved and where
// to pay.
func (s *Service) SendBookingApproved(to, bookingID, total, checkoutURL string) error {
	subject := fmt.Sprintf("Reserva aprovada - pagamento pendente (#%s)", shortID(bookingID))
	body := BuildBookingApprovedBody(bookingID, total, checkoutURL)
	return s.send(to, subject, body)
}

// SendBookingRejected tells the customer the vendor declined.
func (s *Service) SendBookingRejected(to, bookingID, reason string) error {
	subject := fmt.Sprintf("Reserva recusada (#%s)", shortID(bookingID))
	body := BuildBookingRejectedBody(bookingID, reason)
	return s.send(to, subject, body)
}

// SendBookingPaid confirms the payment to the customer.
func (s *Service) SendBookingPaid(to, bookingID string) error {
	subject := fmt.Sprintf("Pagamento confirmado (#%s)", shortID(bookingID))
	body := BuildBookingPaidBody(bookingID)
	return s.send(to, subject, body)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *Service) send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		s.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	return smtp.SendMail(addr, nil, s.from, []string{to}, []byte(msg))
}
