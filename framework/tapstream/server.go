package tapstream

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/launchdarkly/eventsource"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/rs/cors"
)

const (
	reportChannel = "report"
	lineEventName = "line"
)

type eventSourceDebugLogger struct {
	logger framework.Logger
}

func (l eventSourceDebugLogger) Println(args ...interface{}) {
	l.logger.Printf("%s", strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func (l eventSourceDebugLogger) Printf(format string, args ...interface{}) {
	l.logger.Printf(format, args...)
}

// Server holds the report lines of a single run and serves them over SSE.
type Server struct {
	runID       string
	streams     *eventsource.Server
	debugLogger framework.Logger
	publishLock sync.Mutex
	lock        sync.RWMutex
	lines       []string
	closed      bool
}

type lineEvent struct {
	runID string
	seq   int
	text  string
}

func (e lineEvent) Event() string { return lineEventName }

func (e lineEvent) Id() string { //nolint:stylecheck // method name must match eventsource.Event
	return e.runID + "-" + strconv.Itoa(e.seq)
}

func (e lineEvent) Data() string {
	w := jwriter.NewWriter()
	obj := w.Object()
	obj.Name("run").String(e.runID)
	obj.Name("seq").Int(e.seq)
	obj.Name("text").String(e.text)
	obj.End()
	return string(w.Bytes())
}

// NewServer creates a Server with a fresh run ID.
func NewServer(debugLogger framework.Logger) *Server {
	if debugLogger == nil {
		debugLogger = framework.NullLogger()
	}
	streams := eventsource.NewServer()
	streams.ReplayAll = true
	streams.Logger = eventSourceDebugLogger{debugLogger}

	s := &Server{
		runID:       uuid.NewString(),
		streams:     streams,
		debugLogger: debugLogger,
	}
	streams.Register(reportChannel, s)
	return s
}

// RunID identifies this run in every event the server publishes.
func (s *Server) RunID() string {
	return s.runID
}

// Sink returns a tapzero.Sink that records each line and publishes it to subscribers.
func (s *Server) Sink() tapzero.Sink {
	return func(lines ...string) {
		s.publishLock.Lock()
		defer s.publishLock.Unlock()
		for _, line := range lines {
			s.lock.Lock()
			s.lines = append(s.lines, line)
			event := lineEvent{runID: s.runID, seq: len(s.lines), text: line}
			closed := s.closed
			s.lock.Unlock()
			if !closed {
				s.streams.Publish([]string{reportChannel}, event)
			}
		}
	}
}

// Lines returns a copy of every line recorded so far.
func (s *Server) Lines() []string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]string(nil), s.lines...)
}

// Replay is called by the eventsource server when a client subscribes. Lines after the
// client's Last-Event-ID are sent; an ID from another run replays everything.
func (s *Server) Replay(channel, id string) chan eventsource.Event {
	after := s.seqFromEventID(id)

	s.lock.RLock()
	defer s.lock.RUnlock()
	var pending []lineEvent
	if channel == reportChannel && after < len(s.lines) {
		for i, line := range s.lines[after:] {
			pending = append(pending, lineEvent{runID: s.runID, seq: after + i + 1, text: line})
		}
	}
	s.debugLogger.Printf("replaying %d report lines to new subscriber", len(pending))

	ch := make(chan eventsource.Event, len(pending))
	for _, e := range pending {
		ch <- e
	}
	close(ch)
	return ch
}

func (s *Server) seqFromEventID(id string) int {
	seq, found := strings.CutPrefix(id, s.runID+"-")
	if !found {
		return 0
	}
	n, err := strconv.Atoi(seq)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// Handler serves the event stream at /report and the plain-text report at /report/text.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/report", s.streams.Handler(reportChannel)).Methods("GET")
	router.HandleFunc("/report/text", s.serveText).Methods("GET")
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
	})
	return c.Handler(router)
}

func (s *Server) serveText(w http.ResponseWriter, _ *http.Request) {
	lines := s.Lines()
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	for _, line := range lines {
		_, _ = fmt.Fprintln(w, line)
	}
}

// Close disconnects all subscribers. Lines sent to the Sink afterward are still recorded
// for the text endpoint but are no longer published.
func (s *Server) Close() {
	s.publishLock.Lock()
	defer s.publishLock.Unlock()
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return
	}
	s.closed = true
	s.lock.Unlock()
	s.streams.Close()
}
