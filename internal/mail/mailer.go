package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fairticket/ticketing-backend/internal/logger"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Message: письмо по шаблону с динамическими данными.
type Message struct {
	To         string
	TemplateID string
	Data       map[string]string
}

// Mailer отправляет письма.
type Mailer interface {
	SendTemplate(ctx context.Context, msg Message) error
}

// SendGridMailer отправляет письма через SendGrid v3 API.
type SendGridMailer struct {
	apiKey   string
	from     string
	endpoint string
	client   *http.Client
}

// NewSendGridMailer создаёт клиент SendGrid.
func NewSendGridMailer(apiKey, from string) *SendGridMailer {
	return &SendGridMailer{
		apiKey:   apiKey,
		from:     from,
		endpoint: sendGridEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// WithEndpoint подменяет адрес API (используется в тестах).
func (m *SendGridMailer) WithEndpoint(endpoint string) *SendGridMailer {
	m.endpoint = endpoint
	return m
}

type sendGridAddress struct {
	Email string `json:"email"`
}

type sendGridPersonalization struct {
	To                  []sendGridAddress `json:"to"`
	DynamicTemplateData map[string]string `json:"dynamic_template_data"`
}

type sendGridRequest struct {
	Personalizations []sendGridPersonalization `json:"personalizations"`
	From             sendGridAddress           `json:"from"`
	TemplateID       string                    `json:"template_id"`
}

// SendTemplate отправляет письмо. Любой ответ кроме 2xx считается ошибкой.
func (m *SendGridMailer) SendTemplate(ctx context.Context, msg Message) error {
	body, err := json.Marshal(sendGridRequest{
		Personalizations: []sendGridPersonalization{{
			To:                  []sendGridAddress{{Email: msg.To}},
			DynamicTemplateData: msg.Data,
		}},
		From:       sendGridAddress{Email: m.from},
		TemplateID: msg.TemplateID,
	})
	if err != nil {
		return fmt.Errorf("mail: не удалось сериализовать письмо: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("mail: не удалось создать запрос: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail: ошибка запроса к SendGrid: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		details, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		logger.Log.WithFields(logrus.Fields{
			"status":   resp.StatusCode,
			"template": msg.TemplateID,
			"response": string(details),
		}).Error("mail: SendGrid отклонил письмо")
		return fmt.Errorf("mail: SendGrid вернул статус %d", resp.StatusCode)
	}

	return nil
}

// LogMailer пишет письма в лог вместо отправки. Только для development.
type LogMailer struct{}

// SendTemplate логирует только получателя и шаблон. Данные письма содержат код и в лог не попадают.
func (LogMailer) SendTemplate(_ context.Context, msg Message) error {
	logger.Log.WithFields(logrus.Fields{
		"to":       msg.To,
		"template": msg.TemplateID,
	}).Info("mail: письмо не отправлено, SENDGRID_API_KEY не задан")
	return nil
}
