package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"sportsbet-lab/internal/observability"
)

// StreamConfig configures odds stream behavior.
type StreamConfig struct {
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// ReadTimeout is timeout for reading messages.
	ReadTimeout time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// Buffer is the quote channel capacity.
	Buffer int
}

// DefaultStreamConfig returns default stream configuration.
func DefaultStreamConfig() StreamConfig {
	return StreamConfig{
		PingInterval: 30 * time.Second,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 10 * time.Second,
		Buffer:       256,
	}
}

// streamRequest subscribes to one or more sports.
type streamRequest struct {
	Action string   `json:"action"`
	Sports []string `json:"sports"`
}

// Stream is a live odds feed over websocket. Malformed frames are logged
// and skipped; the stream never dies on one bad quote.
type Stream struct {
	endpoint string
	config   StreamConfig
	log      *logrus.Entry

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	quotes chan Quote
	done   chan struct{}
	wg     sync.WaitGroup
}

// NewStream connects to the endpoint and subscribes to the given sports.
func NewStream(ctx context.Context, endpoint string, sports []string, config *StreamConfig, log *logrus.Entry) (*Stream, error) {
	cfg := DefaultStreamConfig()
	if config != nil {
		cfg = *config
	}
	if log == nil {
		log = logrus.NewEntry(logrus.New())
	}

	s := &Stream{
		endpoint: endpoint,
		config:   cfg,
		log:      log,
		quotes:   make(chan Quote, cfg.Buffer),
		done:     make(chan struct{}),
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	s.conn = conn

	if err := s.subscribe(sports); err != nil {
		conn.Close()
		return nil, err
	}

	s.wg.Add(1)
	go s.readLoop()

	s.wg.Add(1)
	go s.pingLoop()

	return s, nil
}

// Quotes returns the channel of normalized quotes. It is closed when the
// stream shuts down.
func (s *Stream) Quotes() <-chan Quote {
	return s.quotes
}

// Close shuts the stream down and waits for its goroutines.
func (s *Stream) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(s.done)

	s.connMu.Lock()
	err := s.conn.Close()
	s.connMu.Unlock()

	s.wg.Wait()
	close(s.quotes)
	return err
}

func (s *Stream) subscribe(sports []string) error {
	req := streamRequest{Action: "subscribe", Sports: sports}

	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (s *Stream) readLoop() {
	defer s.wg.Done()

	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.log.WithError(err).Warn("odds stream read failed")
			}
			return
		}

		var wire wireQuote
		if err := json.Unmarshal(msg, &wire); err != nil {
			observability.RecordMalformedQuote()
			s.log.WithError(err).Warn("malformed odds frame skipped")
			continue
		}
		quote, err := wire.normalize()
		if err != nil {
			observability.RecordMalformedQuote()
			s.log.WithError(err).WithField("event_id", wire.EventID).Warn("unnormalizable quote skipped")
			continue
		}

		select {
		case s.quotes <- quote:
		case <-s.done:
			return
		}
	}
}

func (s *Stream) pingLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.connMu.Lock()
			s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			err := s.conn.WriteMessage(websocket.PingMessage, nil)
			s.connMu.Unlock()
			if err != nil {
				if !s.closed.Load() {
					s.log.WithError(err).Warn("odds stream ping failed")
				}
				return
			}
		case <-s.done:
			return
		}
	}
}
