package notify

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"strings"
	"sync"
	"time"
)

const (
	RegisterMessageType  = "register"
	NewEventsMessageType = "new_events"
)

// RegisterMessage is sent by a client over UDP to start receiving pushes.
// Artists is optional; empty means "everything".
type RegisterMessage struct {
	Type    string   `json:"type"`
	UserID  string   `json:"user_id"`
	Artists []string `json:"artists,omitempty"`
}

// NewEventsMessage is pushed after an ingestion run lands fresh shows.
type NewEventsMessage struct {
	Type       string    `json:"type"`
	ArtistName string    `json:"artist_name"`
	Count      int       `json:"count"`
	At         time.Time `json:"at"`
}

type Client struct {
	UserID  string
	Addr    *net.UDPAddr
	Artists map[string]struct{} // lowercased; nil or empty = all artists
}

func (c Client) wants(artistName string) bool {
	if len(c.Artists) == 0 {
		return true
	}
	_, ok := c.Artists[strings.ToLower(artistName)]
	return ok
}

type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
}

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]Client)}
}

func (r *Registry) Register(userID string, addr *net.UDPAddr, artists []string) {
	if userID == "" || addr == nil {
		return
	}
	var filter map[string]struct{}
	if len(artists) > 0 {
		filter = make(map[string]struct{}, len(artists))
		for _, a := range artists {
			a = strings.ToLower(strings.TrimSpace(a))
			if a != "" {
				filter[a] = struct{}{}
			}
		}
	}
	r.mu.Lock()
	r.clients[userID] = Client{UserID: userID, Addr: addr, Artists: filter}
	r.mu.Unlock()
}

func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	delete(r.clients, userID)
	r.mu.Unlock()
}

// Interested returns the clients whose filter matches artistName.
func (r *Registry) Interested(artistName string) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		if client.wants(artistName) {
			clients = append(clients, client)
		}
	}
	return clients
}

func (r *Registry) Snapshot() []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]Client, 0, len(r.clients))
	for _, client := range r.clients {
		clients = append(clients, client)
	}
	return clients
}

type Server struct {
	addr     string
	registry *Registry
	logger   *log.Logger
	conn     *net.UDPConn

	mu     sync.Mutex
	closed bool
}

func NewServer(addr string, registry *Registry, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{addr: addr, registry: registry, logger: logger}
}

func (s *Server) Run() error {
	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()

	s.logger.Printf("UDP notify server listening on %s", s.addr)

	buffer := make([]byte, 2048)
	for {
		n, addr, err := conn.ReadFromUDP(buffer)
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return err
		}
		msg, err := parseRegisterMessage(buffer[:n])
		if err != nil {
			s.logger.Printf("invalid UDP message from %s: %v", addr, err)
			continue
		}
		if msg.Type != RegisterMessageType {
			continue
		}
		s.registry.Register(msg.UserID, addr, msg.Artists)
		s.logger.Printf("registered UDP client %s (%s)", msg.UserID, addr)
	}
}

func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// BroadcastNewEvents pushes a new_events message to every client whose
// artist filter matches.
func (s *Server) BroadcastNewEvents(artistName string, count int) {
	if s.conn == nil {
		s.logger.Printf("UDP notify server not running")
		return
	}
	payload, err := json.Marshal(NewEventsMessage{
		Type:       NewEventsMessageType,
		ArtistName: artistName,
		Count:      count,
		At:         time.Now().UTC(),
	})
	if err != nil {
		s.logger.Printf("failed to marshal broadcast: %v", err)
		return
	}

	for _, client := range s.registry.Interested(artistName) {
		s.sendWithRetry(client, payload)
	}
}

func (s *Server) sendWithRetry(client Client, payload []byte) {
	if err := s.sendOnce(client, payload); err == nil {
		return
	}
	if err := s.sendOnce(client, payload); err != nil {
		s.logger.Printf("failed to notify user %s at %s: %v", client.UserID, client.Addr, err)
		s.registry.Remove(client.UserID)
	}
}

func (s *Server) sendOnce(client Client, payload []byte) error {
	if client.Addr == nil {
		return errors.New("missing client address")
	}
	_, err := s.conn.WriteToUDP(payload, client.Addr)
	return err
}

func parseRegisterMessage(data []byte) (RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, err
	}
	if msg.UserID == "" || msg.Type == "" {
		return msg, errors.New("missing required fields")
	}
	return msg, nil
}
