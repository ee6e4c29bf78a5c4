// Package smtp submits serialized messages to the configured SMTP server.
package smtp

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"mailwire/internal/config"
)

const dialTimeout = 30 * time.Second

// Send submits msg, an already serialized RFC 822 byte stream, for the given
// envelope sender and recipients. The stream must not carry a Bcc header;
// Bcc recipients travel only in the envelope.
func Send(cfg config.Config, from string, recipients []string, msg []byte) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients provided")
	}

	client, err := dial(cfg)
	if err != nil {
		return err
	}
	defer client.Quit()

	auth := smtp.PlainAuth("", cfg.Auth.Username, cfg.Auth.Password, cfg.SMTP.Host)
	if err := client.Auth(auth); err != nil {
		return err
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func dial(cfg config.Config) (*smtp.Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.SMTP.Host, cfg.SMTP.Port)
	tlsConfig := &tls.Config{
		ServerName:         cfg.SMTP.Host,
		InsecureSkipVerify: cfg.SMTP.InsecureSkipVerify,
	}

	if cfg.SMTP.TLS {
		conn, err := tls.DialWithDialer(&net.Dialer{Timeout: dialTimeout}, "tcp", addr, tlsConfig)
		if err != nil {
			return nil, err
		}
		return smtp.NewClient(conn, cfg.SMTP.Host)
	}

	client, err := smtp.Dial(addr)
	if err != nil {
		return nil, err
	}
	if cfg.SMTP.StartTLS {
		if err := client.StartTLS(tlsConfig); err != nil {
			_ = client.Quit()
			return nil, err
		}
	}
	return client, nil
}
