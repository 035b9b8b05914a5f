package mailbox

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockIMAPServer is a minimal implicit TLS IMAP server with one folder of
// three messages.
type mockIMAPServer struct {
	listener     net.Listener
	address      string
	authAttempts int32
	validUser    string
	validPass    string

	mu          sync.Mutex
	dropConn    bool
	commands    []string
	initialResp string
}

func newMockIMAPServer(t *testing.T, validUser, validPass string) *mockIMAPServer {
	t.Helper()
	cert, err := generateSelfSignedCertificate()
	if err != nil {
		t.Fatalf("failed to generate certificate: %v", err)
	}

	listener, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{Certificates: []tls.Certificate{cert}})
	if err != nil {
		t.Fatalf("failed to create TLS listener: %v", err)
	}

	s := &mockIMAPServer{
		listener:  listener,
		address:   listener.Addr().String(),
		validUser: validUser,
		validPass: validPass,
	}
	t.Cleanup(s.Close)

	go s.serve()
	return s
}

func (s *mockIMAPServer) serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		go s.handleConnection(conn)
	}
}

func (s *mockIMAPServer) handleConnection(conn net.Conn) {
	defer conn.Close()

	s.mu.Lock()
	drop := s.dropConn
	s.mu.Unlock()
	if drop {
		return
	}

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	writer.WriteString("* OK IMAP4rev1 Mock Server Ready\r\n")
	writer.Flush()

	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 2 {
			continue
		}
		tag := parts[0]
		command := strings.ToUpper(parts[1])

		s.mu.Lock()
		s.commands = append(s.commands, command)
		s.mu.Unlock()

		switch command {
		case "CAPABILITY":
			writer.WriteString("* CAPABILITY IMAP4rev1 SASL-IR AUTH=XOAUTH2\r\n")
			writer.WriteString(fmt.Sprintf("%s OK CAPABILITY completed\r\n", tag))

		case "LOGIN":
			atomic.AddInt32(&s.authAttempts, 1)
			if len(parts) >= 4 &&
				strings.Trim(parts[2], `"`) == s.validUser &&
				strings.Trim(parts[3], `"`) == s.validPass {
				writer.WriteString(fmt.Sprintf("%s OK LOGIN completed\r\n", tag))
			} else {
				writer.WriteString(fmt.Sprintf("%s NO [AUTHENTICATIONFAILED] Authentication failed\r\n", tag))
			}

		case "AUTHENTICATE":
			atomic.AddInt32(&s.authAttempts, 1)
			if len(parts) >= 4 {
				s.mu.Lock()
				s.initialResp = parts[3]
				s.mu.Unlock()
			}
			writer.WriteString(fmt.Sprintf("%s OK AUTHENTICATE completed\r\n", tag))

		case "SELECT", "EXAMINE":
			writer.WriteString("* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)\r\n")
			writer.WriteString("* 3 EXISTS\r\n")
			writer.WriteString("* OK [UIDVALIDITY 1] UIDs valid\r\n")
			writer.WriteString(fmt.Sprintf("%s OK [READ-WRITE] %s completed\r\n", tag, command))

		case "LIST":
			writer.WriteString("* LIST (\\HasNoChildren) \".\" \"INBOX\"\r\n")
			writer.WriteString("* LIST (\\HasNoChildren) \".\" \"INBOX.Sent\"\r\n")
			writer.WriteString(fmt.Sprintf("%s OK LIST completed\r\n", tag))

		case "LOGOUT":
			writer.WriteString("* BYE IMAP4rev1 Server logging out\r\n")
			writer.WriteString(fmt.Sprintf("%s OK LOGOUT completed\r\n", tag))
			writer.Flush()
			return

		default:
			writer.WriteString(fmt.Sprintf("%s OK %s completed\r\n", tag, command))
		}

		writer.Flush()
	}
}

func (s *mockIMAPServer) AuthAttempts() int {
	return int(atomic.LoadInt32(&s.authAttempts))
}

func (s *mockIMAPServer) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// DropConnections makes the server close new connections before the
// greeting.
func (s *mockIMAPServer) DropConnections() {
	s.mu.Lock()
	s.dropConn = true
	s.mu.Unlock()
}

func (s *mockIMAPServer) Close() {
	s.listener.Close()
}

func (s *mockIMAPServer) Port() int {
	_, portStr, _ := net.SplitHostPort(s.address)
	var port int
	fmt.Sscanf(portStr, "%d", &port)
	return port
}

// generateSelfSignedCertificate generates a self-signed certificate for testing
func generateSelfSignedCertificate() (tls.Certificate, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return tls.Certificate{}, err
	}

	template := x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{Organization: []string{"Test Co"}},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		IPAddresses:           []net.IP{net.IPv4(127, 0, 0, 1)},
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &priv.PublicKey, priv)
	if err != nil {
		return tls.Certificate{}, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(priv)})

	return tls.X509KeyPair(certPEM, keyPEM)
}

func mockSession(server *mockIMAPServer, user, pass string) *Session {
	s := &Session{}
	s.SetupWithOptions("127.0.0.1", user, pass, server.Port(), "/ssl/novalidate-cert")
	return s
}

func TestDialerConnectAndCount(t *testing.T) {
	server := newMockIMAPServer(t, "testuser", "testpass")
	s := mockSession(server, "testuser", "testpass")
	ctx := context.Background()

	if err := s.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer s.Close()

	if got := server.AuthAttempts(); got != 1 {
		t.Errorf("auth attempts = %d, want 1", got)
	}
	if got := s.Mailbox(); got != "INBOX" {
		t.Errorf("Mailbox() = %q, want INBOX", got)
	}

	n, err := s.CountMail(ctx)
	if err != nil {
		t.Fatalf("CountMail() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountMail() = %d, want 3", n)
	}

	folders, err := s.ListMailboxes(ctx)
	if err != nil {
		t.Fatalf("ListMailboxes() error = %v", err)
	}
	if want := []string{"INBOX", "INBOX.Sent"}; !reflect.DeepEqual(folders, want) {
		t.Errorf("ListMailboxes() = %v, want %v", folders, want)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if s.Connected() {
		t.Error("Connected() = true after Close")
	}
}

func TestDialerAuthenticationNotRetried(t *testing.T) {
	server := newMockIMAPServer(t, "testuser", "testpass")
	s := mockSession(server, "testuser", "wrongpass")

	start := time.Now()
	err := s.Connect(context.Background())
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Connect() took %v, expected to fail fast", elapsed)
	}
	if got := server.AuthAttempts(); got != 1 {
		t.Errorf("auth attempts = %d, want exactly 1", got)
	}
	if strings.Contains(err.Error(), "wrongpass") {
		t.Errorf("error leaks the password: %v", err)
	}
	if s.Connected() {
		t.Error("Connected() = true after failed authentication")
	}
}

func TestDialerXOAuth2(t *testing.T) {
	server := newMockIMAPServer(t, "", "")
	s := &Session{}
	s.SetupOAuth2("127.0.0.1", "user@example.com", "ya29.token", server.Port(), "/ssl/novalidate-cert")

	if err := s.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer s.Close()

	for _, cmd := range server.Commands() {
		if cmd == "LOGIN" {
			t.Error("LOGIN sent for an OAuth2 session")
		}
	}

	server.mu.Lock()
	ir := server.initialResp
	server.mu.Unlock()
	decoded, err := base64.StdEncoding.DecodeString(ir)
	if err != nil {
		t.Fatalf("initial response %q is not base64: %v", ir, err)
	}
	if want := "user=user@example.com\x01auth=Bearer ya29.token\x01\x01"; string(decoded) != want {
		t.Errorf("XOAUTH2 initial response = %q, want %q", decoded, want)
	}
}

func TestDialerConnectionDropped(t *testing.T) {
	server := newMockIMAPServer(t, "testuser", "testpass")
	server.DropConnections()
	s := mockSession(server, "testuser", "testpass")

	if err := s.Connect(context.Background()); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
	if got := server.AuthAttempts(); got != 0 {
		t.Errorf("auth attempts = %d, want 0", got)
	}
}

func TestDialerUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().(*net.TCPAddr)
	ln.Close()

	oldTimeout := DialTimeout
	DialTimeout = 2 * time.Second
	defer func() { DialTimeout = oldTimeout }()

	s := &Session{}
	s.SetupWithOptions("127.0.0.1", "u", "p", addr.Port, "/ssl")
	if err := s.Connect(context.Background()); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestDialerCanceledContext(t *testing.T) {
	server := newMockIMAPServer(t, "testuser", "testpass")
	s := mockSession(server, "testuser", "testpass")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Connect(ctx); !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}
