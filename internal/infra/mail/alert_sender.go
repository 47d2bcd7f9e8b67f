package mail

import (
	"fmt"

	"gopkg.in/gomail.v2"
)

type AlertSender struct {
	Host     string
	Port     int
	User     string
	Password string

	From string
	To   string // operador que recebe os alertas de falha
}

func NewAlertSender(host string, port int, user, password, from, to string) *AlertSender {
	return &AlertSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		To:       to,
	}
}

// SendDeliveryFailure avisa o operador que uma entrega morreu em
// definitivo. Best-effort: quem chama só loga se isso falhar.
func (s *AlertSender) SendDeliveryFailure(gatewayName, phone, errDetail string) error {
	if s.To == "" {
		return nil
	}

	body := fmt.Sprintf(
		"A entrega de WhatsApp para %s falhou em definitivo.\n\nGateway: %s\nErro: %s\n\nA mensagem continua visível e retentável no log de entregas.",
		phone, gatewayName, errDetail,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", s.To)
	m.SetHeader("Subject", fmt.Sprintf("⚠️ Falha de entrega WhatsApp (%s)", gatewayName))
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.Host, s.Port, s.User, s.Password)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("erro ao enviar alerta SMTP: %w", err)
	}

	return nil
}
