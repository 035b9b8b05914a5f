package mailbox

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Security selects how the connection to the server is protected.
type Security uint8

const (
	// SecurityStartTLS upgrades a plaintext connection with STARTTLS.
	SecurityStartTLS Security = iota
	// SecurityTLS connects with implicit TLS.
	SecurityTLS
	// SecurityNone never negotiates TLS.
	SecurityNone
)

func (s Security) String() string {
	switch s {
	case SecurityStartTLS:
		return "starttls"
	case SecurityTLS:
		return "tls"
	case SecurityNone:
		return "none"
	}
	return "unknown"
}

// Address is the parsed form of an address token such as
// "{imap.example.com:993/ssl/novalidate-cert}INBOX".
type Address struct {
	Host           string
	Port           int
	Mailbox        string
	Security       Security
	NoValidateCert bool
	ReadOnly       bool
	Debug          bool
}

// HostPort returns the dialable "host:port" form of the address.
func (a Address) HostPort() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// BuildAddress composes the address token for server and options.
func BuildAddress(server, options string) string {
	return "{" + server + options + "}"
}

// ParseAddress parses an address token. A port inside the token wins over
// defaultPort; flags are matched case-insensitively.
func ParseAddress(token string, defaultPort int) (a Address, err error) {
	if !strings.HasPrefix(token, "{") {
		return a, fmt.Errorf("mailbox address %q: missing '{'", token)
	}
	end := strings.IndexByte(token, '}')
	if end == -1 {
		return a, fmt.Errorf("mailbox address %q: missing '}'", token)
	}
	a.Mailbox = token[end+1:]

	fields := strings.Split(token[1:end], "/")
	hostport := fields[0]
	if hostport == "" {
		return a, fmt.Errorf("mailbox address %q: empty host", token)
	}

	a.Port = defaultPort
	if strings.Contains(hostport, ":") {
		host, port, err := net.SplitHostPort(hostport)
		if err != nil {
			return a, fmt.Errorf("mailbox address %q: %w", token, err)
		}
		a.Port, err = strconv.Atoi(port)
		if err != nil {
			return a, fmt.Errorf("mailbox address %q: bad port %q", token, port)
		}
		hostport = host
	}
	a.Host = hostport

	for _, flag := range fields[1:] {
		name, _, _ := strings.Cut(strings.ToLower(flag), "=")
		switch name {
		case "imap", "imap2", "imap2bis", "imap4", "imap4rev1", "service", "secure", "user", "authuser":
		case "ssl":
			a.Security = SecurityTLS
		case "tls":
			a.Security = SecurityStartTLS
		case "notls":
			a.Security = SecurityNone
		case "novalidate-cert":
			a.NoValidateCert = true
		case "validate-cert":
			a.NoValidateCert = false
		case "readonly":
			a.ReadOnly = true
		case "debug":
			a.Debug = true
		default:
			return a, fmt.Errorf("mailbox address %q: unknown flag %q", token, flag)
		}
	}

	if a.Port == 0 {
		a.Port = 143
		if a.Security == SecurityTLS {
			a.Port = 993
		}
	}

	return a, nil
}
