package notify

import (
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/hzamorano/delivery-weather-alerts/internal/forecast"
)

// ErrDeliveryFailed covers every transport failure: authentication,
// connection, recipient rejection. The underlying cause is logged and
// wrapped, never exposed in structured form.
var ErrDeliveryFailed = errors.New("alert delivery failed")

// Sender is the orchestrator-facing contract for outbound delay alerts.
type Sender interface {
	SendAlert(email, location string, f forecast.Forecast) error
}

// Mailer sends delay alerts over an authenticated SMTP session (STARTTLS on
// the usual submission port).
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	logger *slog.Logger
}

func NewMailer(host string, port int, user, pass string, logger *slog.Logger) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   user,
		logger: logger,
	}
}

const alertSubject = "ENTREGA RETRASADA POR CONDICIONES CLIMÁTICAS"

// SendAlert submits exactly one plain-text message to the recipient. Not
// idempotent: calling twice sends twice.
func (m *Mailer) SendAlert(email, location string, f forecast.Forecast) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", email)
	msg.SetHeader("Subject", alertSubject)
	msg.SetBody("text/plain", alertBody(location, f))

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("smtp send failed", "recipient", email, "error", err)
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	m.logger.Info("delay alert sent", "recipient", email, "location", location)
	return nil
}

func alertBody(location string, f forecast.Forecast) string {
	return fmt.Sprintf(
		"Hola! Tenemos programada la entrega de tu paquete para mañana en %s. "+
			"Esperamos un día con %s, y por esta razón es posible que tengamos retrasos. "+
			"Haremos todo a nuestro alcance para cumplir con tu entrega.",
		location, f.Description,
	)
}
