package resources

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/launchdarkly/tap-test-harness/framework"
	"github.com/launchdarkly/tap-test-harness/framework/tapzero"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
)

// Somewhat arbitrary buffer size for the channel that we use as a queue for incoming request
// information. If the channel is full, the HTTP request handler will *not* block; it will just
// discard the information.
const incomingRequestChannelBufferSize = 10

type HTTPServerOptions struct {
	// Handler serves requests. If nil, every request gets a 200 response whose body is the
	// request URI.
	Handler http.Handler `yaml:"-"`
	// Address to listen on. Defaults to a random port on the loopback interface.
	Address string `yaml:"address"`
	// Logger receives debug output about requests.
	Logger framework.Logger `yaml:"-"`
}

// IncomingRequest describes a request received by an HTTPServer.
type IncomingRequest struct {
	Method  string
	URL     url.URL
	Headers http.Header
	Body    []byte
}

// HTTPServer is a local HTTP server that runs for the duration of one test.
type HTTPServer struct {
	options  HTTPServerOptions
	server   *http.Server
	baseURL  string
	requests chan IncomingRequest
	logger   framework.Logger
	lock     sync.Mutex
}

// NewHTTPServer creates an HTTPServer that is not listening yet.
func NewHTTPServer(options HTTPServerOptions, _ *tapzero.T) *HTTPServer {
	logger := options.Logger
	if logger == nil {
		logger = framework.NullLogger()
	}
	return &HTTPServer{
		options:  options,
		requests: make(chan IncomingRequest, incomingRequestChannelBufferSize),
		logger:   logger,
	}
}

// EchoHandler responds to every request with status 200 and the request URI as the body.
func EchoHandler() http.Handler {
	router := mux.NewRouter()
	router.PathPrefix("/").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, r.URL.RequestURI())
	})
	return router
}

func (s *HTTPServer) Bootstrap(ctx context.Context) error {
	address := s.options.Address
	if address == "" {
		address = "127.0.0.1:0"
	}
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", address)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", address)
	}
	handler := s.options.Handler
	if handler == nil {
		handler = EchoHandler()
	}
	server := &http.Server{
		Handler:           s.recording(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.lock.Lock()
	s.server = server
	s.baseURL = "http://" + listener.Addr().String()
	s.lock.Unlock()

	s.logger.Printf("HTTP server listening at %s", s.baseURL)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("HTTP server at %s stopped: %s", listener.Addr(), err)
		}
	}()
	return nil
}

func (s *HTTPServer) Close(ctx context.Context) error {
	s.lock.Lock()
	server := s.server
	s.server = nil
	s.lock.Unlock()
	if server == nil {
		return nil
	}
	return errors.Wrap(server.Shutdown(ctx), "stopping HTTP server")
}

// URL returns the base URL of the server followed by path.
func (s *HTTPServer) URL(path string) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.baseURL + path
}

// AwaitRequest waits for the next request received by the server.
func (s *HTTPServer) AwaitRequest(timeout time.Duration) (IncomingRequest, error) {
	select {
	case r := <-s.requests:
		return r, nil
	case <-time.After(timeout):
		return IncomingRequest{}, fmt.Errorf("timed out after %s waiting for a request to %s", timeout, s.URL(""))
	}
}

// recording captures each request before passing it to the handler.
func (s *HTTPServer) recording(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			data, err := io.ReadAll(r.Body)
			_ = r.Body.Close()
			if err != nil {
				s.logger.Printf("Unexpected error trying to read request body: %s", err)
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			body = data
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		select { // non-blocking push
		case s.requests <- IncomingRequest{Method: r.Method, URL: *r.URL, Headers: r.Header, Body: body}:
		default:
			s.logger.Printf("Incoming request channel was full for %s", r.URL)
		}

		wrapped := wrappedResponseWriter{w: w}
		handler.ServeHTTP(&wrapped, r)
		switch wrapped.status {
		case http.StatusNotFound:
			s.logger.Printf("Received %s request for unrecognized path %s", r.Method, r.URL.Path)
		case http.StatusMethodNotAllowed:
			s.logger.Printf("Received request with unsupported %s method for path %s", r.Method, r.URL.Path)
		}
	})
}

// wrappedResponseWriter lets us see the status that was written, for debug logging of 404
// and 405 responses.
type wrappedResponseWriter struct {
	w      http.ResponseWriter
	status int
}

func (ww *wrappedResponseWriter) Header() http.Header { return ww.w.Header() }

func (ww *wrappedResponseWriter) WriteHeader(status int) {
	ww.status = status
	ww.w.WriteHeader(status)
}

func (ww *wrappedResponseWriter) Write(data []byte) (int, error) { return ww.w.Write(data) }

func (ww *wrappedResponseWriter) Flush() {
	if f, ok := ww.w.(http.Flusher); ok {
		f.Flush()
	}
}
