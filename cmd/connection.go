// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"
	"github.com/gorilla/websocket"
	"github.com/spf13/viper"
	"go.bug.st/serial"
	"golang.org/x/term"
)

// Connection provides a common interface for reading/writing bytes from serial or WebSocket
type Connection interface {
	io.Reader
	io.Writer
	io.Closer
}

// SerialConnection wraps a serial port
type SerialConnection struct {
	port serial.Port
}

func (s *SerialConnection) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

func (s *SerialConnection) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

func (s *SerialConnection) Close() error {
	return s.port.Close()
}

// ErrConnectionClosed is returned when reading from a closed WebSocket connection
var ErrConnectionClosed = errors.New("websocket connection closed")

// WebSocketConnection wraps a WebSocket connection for byte-level reading.
// Protocol bytes travel in binary messages; message boundaries carry no meaning.
type WebSocketConnection struct {
	conn      *websocket.Conn
	buf       []byte
	bufOffset int
	closed    bool
	onClose   func()
}

func (w *WebSocketConnection) Read(p []byte) (int, error) {
	if w.closed {
		return 0, ErrConnectionClosed
	}

	if w.bufOffset < len(w.buf) {
		n := copy(p, w.buf[w.bufOffset:])
		w.bufOffset += n
		return n, nil
	}

	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.closed = true
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return 0, io.EOF
			}
			return 0, err
		}

		// Text frames are accepted too so a browser console can type commands
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}

		w.buf = data
		w.bufOffset = 0
		n := copy(p, w.buf)
		w.bufOffset = n
		return n, nil
	}
}

func (w *WebSocketConnection) Write(p []byte) (int, error) {
	err := w.conn.WriteMessage(websocket.BinaryMessage, p)
	if err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *WebSocketConnection) Close() error {
	if w.onClose != nil {
		defer w.onClose()
	}
	return w.conn.Close()
}

// stdioConnection speaks the line protocol on the process stdin/stdout
type stdioConnection struct {
	in  io.Reader
	out io.Writer
}

func (s stdioConnection) Read(p []byte) (int, error)  { return s.in.Read(p) }
func (s stdioConnection) Write(p []byte) (int, error) { return s.out.Write(p) }
func (s stdioConnection) Close() error                { return nil }

// OpenSerialConnection opens a serial port connection
func OpenSerialConnection(portName string, baudRate int) (Connection, error) {
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}

	return &SerialConnection{port: port}, nil
}

// OpenWebSocketConnection opens a WebSocket connection with HTTP Basic auth
func OpenWebSocketConnection(wsURL, username, password string, skipSSLVerify bool) (Connection, error) {
	u, err := url.Parse(wsURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %s (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: skipSSLVerify,
		}
	}

	headers := http.Header{}
	if username != "" && password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conn, resp, err := dialer.DialContext(ctx, wsURL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("WebSocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("WebSocket connection failed: %w", err)
	}

	return &WebSocketConnection{conn: conn}, nil
}

// AcceptWebSocketConnection serves addr and returns the first client that
// upgrades. Later clients are refused with 409 until the connection is
// closed, which also stops the listener.
func AcceptWebSocketConnection(ctx context.Context, addr string) (Connection, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  256,
		WriteBufferSize: 256,
		CheckOrigin:     func(*http.Request) bool { return true },
	}
	accepted := make(chan *websocket.Conn, 1)
	busy := make(chan struct{}, 1)

	srv := &http.Server{
		ReadHeaderTimeout: 5 * time.Second,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case busy <- struct{}{}:
			default:
				http.Error(w, "controller already has a client", http.StatusConflict)
				return
			}
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				<-busy
				glog.Warningf("websocket: upgrade from %s: %v", r.RemoteAddr, err)
				return
			}
			glog.Infof("websocket: client %s connected", r.RemoteAddr)
			accepted <- conn
		}),
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			glog.Errorf("websocket: serve: %v", err)
		}
	}()
	glog.Infof("websocket: listening on %s", ln.Addr())

	select {
	case conn := <-accepted:
		return &WebSocketConnection{
			conn: conn,
			onClose: func() {
				_ = srv.Close()
			},
		}, nil
	case <-ctx.Done():
		_ = srv.Close()
		return nil, ctx.Err()
	}
}

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("TLC_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Not a terminal, read a plain line
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// OpenConnection opens either a serial or WebSocket connection to a
// controller based on the settings
func OpenConnection(v *viper.Viper) (Connection, string, error) {
	if wsURL := v.GetString(keyURL); wsURL != "" {
		username := v.GetString(keyUsername)
		password := ""
		if username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, "", err
			}
		}

		conn, err := OpenWebSocketConnection(wsURL, username, password, v.GetBool(keyNoSSLVerify))
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("WebSocket: %s", wsURL), nil
	}

	if portName := v.GetString(keyPort); portName != "" {
		baud := v.GetInt(keyBaud)
		conn, err := OpenSerialConnection(portName, baud)
		if err != nil {
			return nil, "", err
		}

		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baud), nil
	}

	return nil, "", fmt.Errorf("either --port or --url must be specified")
}

// openCommandChannel opens the controller side of the command channel for
// run: a serial port, a WebSocket listener, or stdio.
func openCommandChannel(ctx context.Context, v *viper.Viper) (Connection, string, error) {
	if addr := v.GetString(keyListen); addr != "" {
		conn, err := AcceptWebSocketConnection(ctx, addr)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("WebSocket listener: %s", addr), nil
	}

	if portName := v.GetString(keyPort); portName != "" {
		baud := v.GetInt(keyBaud)
		conn, err := OpenSerialConnection(portName, baud)
		if err != nil {
			return nil, "", err
		}
		return conn, fmt.Sprintf("Serial: %s @ %d baud", portName, baud), nil
	}

	return stdioConnection{in: os.Stdin, out: os.Stdout}, "stdio", nil
}
