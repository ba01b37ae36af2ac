package email

import (
	"context"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/qs3c/members_server/config"
	"github.com/qs3c/members_server/internal/pkg/notify"
)

// sendMailFunc 便于测试替换
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Service struct {
	cfg      *config.EmailConfig
	sendMail sendMailFunc
}

func NewService(cfg *config.EmailConfig) *Service {
	return &Service{cfg: cfg, sendMail: smtp.SendMail}
}

// Configured 是否配置了 SMTP 账号
func (s *Service) Configured() bool {
	return s.cfg.SMTPHost != "" && s.cfg.Username != "" && s.cfg.Password != ""
}

// Notify 实现 notify.Notifier
func (s *Service) Notify(ctx context.Context, msg *notify.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sendHTML(msg.To, msg.Subject, msg.HTML)
}

// sendHTML 发送 HTML 邮件，未配置账号时只记录日志
func (s *Service) sendHTML(to, subject, body string) error {
	if !s.Configured() {
		log.Printf("[email] credentials not set, skipping email to=%s subject=%q", to, subject)
		return nil
	}

	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	headers := [][2]string{
		{"From", s.fromHeader(from)},
		{"To", to},
		{"Subject", subject},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/html; charset=UTF-8"},
	}

	var msg strings.Builder
	for _, h := range headers {
		msg.WriteString(fmt.Sprintf("%s: %s\r\n", h[0], h[1]))
	}
	msg.WriteString("\r\n")
	msg.WriteString(body)

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	return s.sendMail(addr, auth, from, []string{to}, []byte(msg.String()))
}

func (s *Service) fromHeader(from string) string {
	if s.cfg.FromName == "" {
		return from
	}
	return fmt.Sprintf("\"%s\" <%s>", s.cfg.FromName, from)
}
