// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"
)

// implicitTLSPort is the SMTPS port that expects TLS from the first byte.
const implicitTLSPort = 465

// SMTPConfig holds the connection settings of an [SMTPSender].
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers messages through an SMTP relay.
//
// Port 465 uses implicit TLS; any other port upgrades with STARTTLS when the
// server advertises it.
type SMTPSender struct {
	config SMTPConfig
	now    func() time.Time
}

// NewSMTPSender creates a sender for config.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	return &SMTPSender{config: config, now: time.Now}
}

// Send performs one SMTP transaction, bounded by ctx.
func (sender *SMTPSender) Send(ctx context.Context, message Message) error {
	payload, err := buildMIME(sender.config.From, message, sender.now())
	if err != nil {
		return err
	}

	host := sender.config.Host
	address := net.JoinHostPort(host, strconv.Itoa(sender.config.Port))
	tlsConfig := &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}

	// Connect to the server
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("mailer: failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if sender.config.Port == implicitTLSPort {
		tlsConn := tls.Client(conn, tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			return fmt.Errorf("mailer: TLS handshake failed: %w", err)
		}
		conn = tlsConn
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("mailer: failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if sender.config.Port != implicitTLSPort {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return fmt.Errorf("mailer: STARTTLS failed: %w", err)
			}
		}
	}

	if sender.config.Username != "" {
		auth := smtp.PlainAuth("", sender.config.Username, sender.config.Password, host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("mailer: failed to authenticate: %w", err)
		}
	}

	if err := client.Mail(sender.config.From); err != nil {
		return fmt.Errorf("mailer: failed to set sender: %w", err)
	}
	if err := client.Rcpt(message.To); err != nil {
		return fmt.Errorf("mailer: failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("mailer: failed to get data writer: %w", err)
	}
	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("mailer: failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("mailer: failed to close data writer: %w", err)
	}

	return client.Quit()
}

// buildMIME renders message as multipart/alternative (or text/plain when there is no HTML part).
func buildMIME(from string, message Message, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	contentType := "text/plain; charset=UTF-8"

	if message.HTMLBody == "" {
		body.WriteString(message.TextBody)
	} else {
		parts := multipart.NewWriter(&body)
		contentType = "multipart/alternative; boundary=" + parts.Boundary()

		for _, part := range []struct {
			mediaType string
			content   string
		}{
			{"text/plain; charset=UTF-8", message.TextBody},
			{"text/html; charset=UTF-8", message.HTMLBody},
		} {
			writer, err := parts.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {part.mediaType},
				"Content-Transfer-Encoding": {"8bit"},
			})
			if err != nil {
				return nil, fmt.Errorf("mailer: failed to create MIME part: %w", err)
			}
			if _, err := writer.Write([]byte(part.content)); err != nil {
				return nil, fmt.Errorf("mailer: failed to write MIME part: %w", err)
			}
		}
		if err := parts.Close(); err != nil {
			return nil, fmt.Errorf("mailer: failed to close MIME writer: %w", err)
		}
	}

	var payload bytes.Buffer
	headers := []struct{ key, value string }{
		{"From", from},
		{"To", message.To},
		{"Subject", mime.QEncoding.Encode("utf-8", message.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"MIME-Version", "1.0"},
		{"Content-Type", contentType},
	}
	for _, header := range headers {
		fmt.Fprintf(&payload, "%s: %s\r\n", header.key, header.value)
	}
	payload.WriteString("\r\n")
	payload.Write(body.Bytes())

	return payload.Bytes(), nil
}
