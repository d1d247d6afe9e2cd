package agent

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// EngagementLogConfig controls NDJSON engagement logging.
type EngagementLogConfig struct {
	Enabled       bool
	Dir           string
	GlobalEnabled bool
	GlobalPath    string
	QueueSize     int
}

// EngagementEvent is one pipeline turn entry in the engagement log.
type EngagementEvent struct {
	Timestamp    time.Time `json:"ts"`
	SessionID    string    `json:"session_id"`
	Mode         string    `json:"mode"`
	Sender       string    `json:"sender"`
	Text         string    `json:"text"`
	ScamDetected bool      `json:"scam_detected"`
	Confidence   int       `json:"confidence"`
	Reason       string    `json:"reason,omitempty"`
}

// EngagementLogger appends engagement turns to per-session NDJSON files.
// Writes happen on a background goroutine so a slow disk never stalls a
// pipeline turn; when the queue is full, events are dropped and counted.
type EngagementLogger struct {
	cfg     EngagementLogConfig
	log     *slog.Logger
	queue   chan EngagementEvent
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	dropped int64
}

// NewEngagementLogger creates the logger and starts its writer goroutine.
// A disabled config returns a logger whose Log is a no-op.
func NewEngagementLogger(cfg EngagementLogConfig, log *slog.Logger) (*EngagementLogger, error) {
	l := &EngagementLogger{
		cfg:  cfg,
		log:  log,
		done: make(chan struct{}),
	}
	if !cfg.Enabled {
		return l, nil
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create engagement log dir: %w", err)
	}
	if cfg.GlobalEnabled {
		if err := os.MkdirAll(filepath.Dir(cfg.GlobalPath), 0755); err != nil {
			return nil, fmt.Errorf("create global engagement log dir: %w", err)
		}
	}

	size := cfg.QueueSize
	if size <= 0 {
		size = 1000
	}
	l.queue = make(chan EngagementEvent, size)
	go l.run()
	return l, nil
}

// Log enqueues an event. Never blocks; drops when the queue is full.
func (l *EngagementLogger) Log(event EngagementEvent) {
	if !l.cfg.Enabled {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case l.queue <- event:
	default:
		l.mu.Lock()
		l.dropped++
		n := l.dropped
		l.mu.Unlock()
		l.log.Warn("Engagement log queue full, dropping event",
			"session_id", event.SessionID, "dropped_total", n)
	}
}

// Close stops the writer goroutine after draining queued events.
func (l *EngagementLogger) Close() error {
	if !l.cfg.Enabled {
		return nil
	}
	l.once.Do(func() {
		close(l.queue)
		<-l.done
	})
	return nil
}

func (l *EngagementLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.log.Error("Failed to write engagement log entry",
				"session_id", event.SessionID, "error", err)
		}
	}
}

func (l *EngagementLogger) write(event EngagementEvent) error {
	event.Text = sanitizeText(event.Text)
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal engagement event: %w", err)
	}
	line = append(line, '\n')

	path := filepath.Join(l.cfg.Dir, sessionFileName(event.SessionID))
	if err := appendLine(path, line); err != nil {
		return err
	}
	if l.cfg.GlobalEnabled {
		if err := appendLine(l.cfg.GlobalPath, line); err != nil {
			return err
		}
	}
	return nil
}

func appendLine(path string, line []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(line); err != nil {
		return fmt.Errorf("append to %s: %w", path, err)
	}
	return nil
}

// sessionFileName maps a session id onto a safe file name.
func sessionFileName(sessionID string) string {
	var b strings.Builder
	for _, r := range sessionID {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "unknown.ndjson"
	}
	return b.String() + ".ndjson"
}

// sanitizeText strips control characters that would corrupt NDJSON readers.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
