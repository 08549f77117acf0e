package mail

import (
	"crypto/tls"
	"io"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/syntecxhub/mailbot/pkg/metrics"
)

// Sender delivers rendered messages over a single SMTP session.
type Sender interface {
	Send(msg *Message) error
	// Verify dials and authenticates without sending anything, surfacing
	// credential problems before the first recipient is touched.
	Verify() error
	Close() error
	GetHost() string
	GetPort() int
}

// SenderConfig holds the SMTP endpoint and identity used for a run.
type SenderConfig struct {
	Host               string
	Port               int
	Username           string
	Password           string
	SenderAddress      string
	SenderName         string
	InsecureSkipVerify bool
}

type sender struct {
	dialer        *gomail.Dialer
	senderAddress string
	senderName    string
	log           *zap.SugaredLogger

	// session is the open SMTP connection, reused across sends. It is nil
	// until the first Send or Verify and after a transport error.
	session gomail.SendCloser
	dialed  bool
}

// NewSender creates a mail sender for the given SMTP endpoint. The connection
// is transport-layer secured: STARTTLS on submission ports, implicit TLS on
// port 465 (gomail selects SSL by port).
func NewSender(cfg SenderConfig, log *zap.SugaredLogger) Sender {
	log.Infow("Initializing mail sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.Username)
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for mail TLS connection")
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}

	senderAddr := cfg.SenderAddress
	if senderAddr == "" {
		senderAddr = cfg.Username
	}

	return &sender{
		dialer:        d,
		senderAddress: senderAddr,
		senderName:    cfg.SenderName,
		log:           log.Named("sender"),
	}
}

// Send delivers one message on the shared session, dialing on first use.
// After a transport error the session is dropped so the next attempt
// re-establishes the connection.
func (s *sender) Send(msg *Message) error {
	if s.session == nil {
		if s.dialed {
			metrics.MailSessionRedials.WithLabelValues(s.dialer.Host).Inc()
		}
		sc, err := s.dialer.Dial()
		if err != nil {
			return err
		}
		s.session = sc
		s.dialed = true
	}

	m := s.build(msg)
	if err := gomail.Send(s.session, m); err != nil {
		s.dropSession()
		return err
	}
	return nil
}

func (s *sender) Verify() error {
	sc, err := s.dialer.Dial()
	if err != nil {
		return err
	}
	s.session = sc
	s.dialed = true
	return nil
}

func (s *sender) Close() error {
	if s.session == nil {
		return nil
	}
	err := s.session.Close()
	s.session = nil
	return err
}

func (s *sender) GetHost() string { return s.dialer.Host }
func (s *sender) GetPort() int    { return s.dialer.Port }

func (s *sender) build(msg *Message) *gomail.Message {
	m := gomail.NewMessage()
	if s.senderName != "" {
		m.SetAddressHeader("From", s.senderAddress, s.senderName)
	} else {
		m.SetHeader("From", s.senderAddress)
	}
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	for _, att := range msg.Attachments {
		data := att.Data
		m.Attach(att.Name, gomail.SetCopyFunc(func(w io.Writer) error {
			_, err := w.Write(data)
			return err
		}))
	}
	return m
}

func (s *sender) dropSession() {
	if s.session == nil {
		return
	}
	if err := s.session.Close(); err != nil {
		s.log.Debugw("Error closing broken mail session", "error", err)
	}
	s.session = nil
}
