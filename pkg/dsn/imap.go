package dsn

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultMailbox is used when a mailbox spec names no folder.
const DefaultMailbox = "INBOX"

// IMAP describes an IMAP mailbox. Its String form is a c-client mailbox
// spec such as {imap.gmail.com:993/imap/ssl}INBOX.
type IMAP struct {
	Host       string
	Port       int
	Mailbox    string
	Encryption string
	VerifyPeer bool
	Username   string
}

// Address returns host:port for dialing.
func (d IMAP) Address() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

func (d IMAP) String() string {
	var b strings.Builder
	b.WriteString("{")
	b.WriteString(d.Host)
	if d.Port > 0 {
		b.WriteString(":")
		b.WriteString(strconv.Itoa(d.Port))
	}
	b.WriteString("/imap")
	switch {
	case IsImplicitTLS(d.Encryption):
		b.WriteString("/ssl")
	case IsStartTLS(d.Encryption):
		b.WriteString("/tls")
	case d.Encryption == EncryptionNone:
		b.WriteString("/notls")
	}
	if !d.VerifyPeer {
		b.WriteString("/novalidate-cert")
	}
	if d.Username != "" {
		b.WriteString("/user=")
		b.WriteString(d.Username)
	}
	b.WriteString("}")
	b.WriteString(d.Mailbox)
	return b.String()
}

// ParseIMAP parses a c-client mailbox spec. Unknown flags are ignored.
// Missing ports default to 993 for ssl and 143 otherwise; a missing mailbox
// defaults to INBOX.
func ParseIMAP(s string) (IMAP, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return IMAP{}, fmt.Errorf("%w: mailbox spec must start with '{'", ErrInvalidDSN)
	}
	end := strings.Index(s, "}")
	if end < 0 {
		return IMAP{}, fmt.Errorf("%w: unterminated mailbox spec", ErrInvalidDSN)
	}

	d := IMAP{VerifyPeer: true, Mailbox: s[end+1:]}
	if d.Mailbox == "" {
		d.Mailbox = DefaultMailbox
	}

	parts := strings.Split(s[1:end], "/")
	host, port, err := splitHostPort(parts[0])
	if err != nil {
		return IMAP{}, err
	}
	d.Host = host

	for _, flag := range parts[1:] {
		name, value, _ := strings.Cut(flag, "=")
		switch strings.ToLower(name) {
		case "imap", "imap2", "imap4", "imap4rev1":
		case "service":
			if !strings.HasPrefix(strings.ToLower(value), "imap") {
				return IMAP{}, fmt.Errorf("%w: service %q", ErrUnsupportedScheme, value)
			}
		case "pop3", "nntp":
			return IMAP{}, fmt.Errorf("%w: %q", ErrUnsupportedScheme, name)
		case "ssl":
			d.Encryption = EncryptionSSL
		case "tls":
			d.Encryption = EncryptionTLS
		case "notls":
			if d.Encryption == "" {
				d.Encryption = EncryptionNone
			}
		case "novalidate-cert":
			d.VerifyPeer = false
		case "validate-cert":
			d.VerifyPeer = true
		case "user":
			d.Username = value
		}
	}

	if port == 0 {
		port = DefaultIMAPPort(d.Encryption)
	}
	d.Port = port

	return d, nil
}

func DefaultIMAPPort(encryption string) int {
	if IsImplicitTLS(encryption) {
		return 993
	}
	return 143
}

func splitHostPort(s string) (string, int, error) {
	if s == "" {
		return "", 0, fmt.Errorf("%w: missing host", ErrInvalidDSN)
	}

	host, portStr := s, ""
	if strings.HasPrefix(s, "[") || strings.Count(s, ":") == 1 {
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			if !strings.HasPrefix(s, "[") {
				return "", 0, fmt.Errorf("%w: %v", ErrInvalidDSN, err)
			}
			h = strings.Trim(s, "[]")
		}
		host, portStr = h, p
	}
	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host", ErrInvalidDSN)
	}
	if portStr == "" {
		return host, 0, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: invalid port %q", ErrInvalidDSN, portStr)
	}
	return host, port, nil
}
