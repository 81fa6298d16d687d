package ipc

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chess10kp/pagegrid/internal/arrangement"
)

const connTimeout = 5 * time.Second

// Server accepts one request line per connection and writes one reply line.
type Server struct {
	socketPath string
	ctrl       *arrangement.Controller
	listener   net.Listener
	running    atomic.Bool
	wg         sync.WaitGroup
}

func NewServer(socketPath string, ctrl *arrangement.Controller) *Server {
	return &Server{
		socketPath: socketPath,
		ctrl:       ctrl,
	}
}

func (s *Server) Start() error {
	if s.running.Load() {
		return fmt.Errorf("IPC server already running")
	}

	// Remove existing socket file if it exists
	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to create socket listener: %w", err)
	}

	s.listener = listener
	s.running.Store(true)

	log.Info("IPC server listening", "socket", s.socketPath)

	s.wg.Add(1)
	go s.acceptConnections()

	return nil
}

func (s *Server) acceptConnections() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.running.Load() {
				log.Error("Error accepting connection", "error", err)
				continue
			}
			return
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(connTimeout))

	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && line == "" {
		log.Error("Error reading from connection", "error", err)
		return
	}

	message := strings.TrimSpace(line)
	log.Debug("Received IPC message", "message", message)

	reply := s.handleMessage(message)
	if _, err := fmt.Fprintln(conn, reply); err != nil {
		log.Error("Error writing IPC reply", "error", err)
	}
}

func (s *Server) handleMessage(message string) string {
	cmd, err := Parse(message)
	if err != nil {
		return "error: " + err.Error()
	}

	reply, err := Execute(s.ctrl, cmd)
	if err != nil {
		return "error: " + err.Error()
	}
	return reply
}

func (s *Server) Stop() error {
	if !s.running.Swap(false) {
		return nil
	}

	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()

	// Remove socket file
	if _, err := os.Stat(s.socketPath); err == nil {
		os.Remove(s.socketPath)
	}

	log.Info("IPC server stopped")
	return nil
}

// Send writes one request line to the socket and returns the reply line.
func Send(socketPath, message string) (string, error) {
	conn, err := net.DialTimeout("unix", socketPath, connTimeout)
	if err != nil {
		return "", fmt.Errorf("failed to connect to pagegrid socket: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(connTimeout))

	if _, err := fmt.Fprintln(conn, message); err != nil {
		return "", fmt.Errorf("failed to send message: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil && reply == "" {
		return "", fmt.Errorf("failed to read reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}
