package stream

import (
	"context"
	stderrors "errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amobagan/nutristream/credential"
	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/observability"
)

// DisconnectDiagnostic is reported when FailOnDisconnect fails a request.
const DisconnectDiagnostic = "connection lost"

// Snapshot is a consistent copy of the session's observable state.
type Snapshot struct {
	SessionID      string
	Connection     ConnectionState
	Analysis       AnalysisState
	SubjectID      string
	Text           string
	FirstChunkSeen bool
	Chunks         int
	Diagnostic     string
}

// Option configures a Session.
type Option func(*Session)

// WithCallbacks sets the notification callbacks.
func WithCallbacks(cb Callbacks) Option {
	return func(s *Session) { s.cb = cb }
}

// WithSink replaces the default TelemetrySink.
func WithSink(sink Sink) Option {
	return func(s *Session) { s.sink = sink }
}

// WithLogger sets the session logger. The default discards output.
func WithLogger(log *logger.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithMetrics records StreamMetrics through the default sink.
func WithMetrics(m *observability.StreamMetrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithInitialSubject submits subjectID AutoStartDelay after the connection
// becomes ready.
func WithInitialSubject(subjectID string) Option {
	return func(s *Session) { s.initialSubject = strings.TrimSpace(subjectID) }
}

// WithSessionID fixes the session ID instead of generating one.
func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Session is one streaming client. All methods are safe for concurrent use.
type Session struct {
	id             string
	cfg            Config
	dialer         Dialer
	creds          credential.Provider
	cb             Callbacks
	sink           Sink
	metrics        *observability.StreamMetrics
	log            *logger.Logger
	initialSubject string

	mu        sync.Mutex
	conn      Conn
	state     ConnectionState
	acc       Accumulator
	autoStart *time.Timer
	readDone  chan struct{}
	changed   chan struct{}
}

// New creates a disconnected session. Nothing is dialed until Open.
func New(cfg Config, dialer Dialer, creds credential.Provider, opts ...Option) *Session {
	cfg.ApplyDefaults()
	s := &Session{
		cfg:     cfg,
		dialer:  dialer,
		creds:   creds,
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()
	}
	if s.log == nil {
		s.log = logger.Nop()
	}
	s.log = s.log.WithComponent("stream").WithFields(logger.Fields(logger.FieldSessionID, s.id))
	if s.sink == nil {
		s.sink = NewTelemetrySink(s.log, s.metrics)
	}
	return s
}

// ID identifies the session in logs and spans.
func (s *Session) ID() string { return s.id }

// Open authenticates and connects. Without a credential it fires
// OnAuthRequired and returns AUTH_REQUIRED (or TOKEN_EXPIRED) without
// dialing. Opening a connected session is a no-op.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case Closed:
		s.mu.Unlock()
		return errors.SessionClosed()
	case Connecting, Connected:
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	token, err := s.credential(ctx)
	if err != nil {
		s.log.Warn("no usable credential, connection not attempted", logger.ErrorFields("credential", err))
		s.cb.authRequired()
		return err
	}

	s.mu.Lock()
	if current := s.state; current != Disconnected {
		s.mu.Unlock()
		if current == Closed {
			return errors.SessionClosed()
		}
		return nil
	}
	s.state = Connecting
	s.mu.Unlock()
	s.notifyState(Connecting)

	dialCtx, cancel := context.WithTimeout(ctx, s.cfg.DialTimeout)
	conn, err := s.dialer.Dial(dialCtx, token)
	cancel()

	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return errors.SessionClosed()
	}
	if err != nil {
		s.state = Disconnected
		s.broadcastLocked()
		s.mu.Unlock()
		s.sink.ConnectFailed(err)
		s.notifyState(Disconnected)
		if appErr, ok := errors.AsAppError(err); ok {
			return appErr
		}
		return errors.ConnectionFailed("analysis endpoint", err)
	}

	done := make(chan struct{})
	s.conn = conn
	s.state = Connected
	s.readDone = done
	if s.initialSubject != "" {
		s.armAutoStartLocked()
	}
	s.broadcastLocked()
	s.mu.Unlock()

	s.notifyState(Connected)
	go s.readLoop(conn, done)
	return nil
}

func (s *Session) credential(ctx context.Context) (string, error) {
	if s.creds == nil {
		return "", errors.AuthRequired()
	}
	tok, err := s.creds.Token(ctx)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeAuthRequired) || errors.IsCode(err, errors.ErrCodeTokenExpired) {
			return "", err
		}
		return "", errors.AuthRequired().WithCause(err)
	}
	if strings.TrimSpace(tok) == "" {
		return "", errors.AuthRequired()
	}
	return tok, nil
}

func (s *Session) armAutoStartLocked() {
	if s.autoStart != nil {
		s.autoStart.Stop()
	}
	subject := s.initialSubject
	delay := max(s.cfg.AutoStartDelay, 0)
	s.autoStart = time.AfterFunc(delay, func() {
		if err := s.StartAnalysis(subject); err != nil {
			s.log.Debug("auto-start skipped", logger.ErrorFields("auto_start", err))
		}
	})
}

// StartAnalysis sends one request for subjectID. It fails without changing
// state when the session is not connected, the trimmed identifier is empty,
// or a request is already streaming.
func (s *Session) StartAnalysis(subjectID string) error {
	s.mu.Lock()
	if s.state != Connected || s.conn == nil {
		state := s.state
		s.mu.Unlock()
		return errors.NotConnected(state.String())
	}
	req, err := NewRequest(subjectID)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if s.acc.State() == Streaming {
		current := s.acc.Subject()
		s.mu.Unlock()
		return errors.StreamInProgress(current)
	}
	s.acc.Start(req.Barcode)
	conn := s.conn
	s.broadcastLocked()
	s.mu.Unlock()

	s.sink.RequestStarted(req.Barcode)
	s.cb.streamingStart()

	if err := conn.Send(req); err != nil {
		s.sink.TransportError("send", err)
		return errors.ConnectionFailed("analysis endpoint", err)
	}
	return nil
}

func (s *Session) readLoop(conn Conn, done chan struct{}) {
	defer close(done)
	for {
		msg, err := conn.Recv()
		if err != nil {
			if errors.IsCode(err, errors.ErrCodeMalformedMessage) {
				s.sink.MalformedMessage(err)
				continue
			}
			s.transportEnded(conn, err)
			return
		}
		s.handle(conn, msg)
	}
}

func (s *Session) handle(conn Conn, msg Message) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	step := s.acc.Apply(msg)
	subject := s.acc.Subject()
	if step.Kind == StepCompleted || step.Kind == StepFailed {
		s.broadcastLocked()
	}
	s.mu.Unlock()

	switch step.Kind {
	case StepIgnored:
		s.log.Debug("message ignored", logger.Fields(logger.FieldMessageKind, msg.Kind()))
	case StepChunk:
		if step.First {
			s.sink.FirstChunk(subject)
			s.cb.firstChunk()
		}
		s.sink.ChunkReceived(subject, len(step.Fragment))
		s.cb.chunk(step.Fragment, step.Text)
	case StepCompleted:
		s.sink.RequestCompleted(subject, len(step.Text))
		s.cb.complete(step.Text)
	case StepFailed:
		s.sink.RequestFailed(subject, step.Diagnostic)
		s.cb.failed(step.Diagnostic)
	}
}

// transportEnded handles the read loop ending on its own. A loop whose
// connection was already replaced or closed locally exits quietly.
func (s *Session) transportEnded(conn Conn, err error) {
	s.mu.Lock()
	if s.conn != conn {
		s.mu.Unlock()
		return
	}
	s.conn = nil
	s.state = Disconnected
	if s.autoStart != nil {
		s.autoStart.Stop()
		s.autoStart = nil
	}
	subject := s.acc.Subject()
	streaming := s.acc.State() == Streaming
	var step Step
	if streaming && s.cfg.FailOnDisconnect {
		step = s.acc.Abandon(DisconnectDiagnostic)
	}
	s.broadcastLocked()
	s.mu.Unlock()

	_ = conn.Close()
	if stderrors.Is(err, io.EOF) {
		s.log.Info("connection closed by peer")
	} else {
		s.sink.TransportError("read", err)
	}
	s.notifyState(Disconnected)

	switch {
	case step.Kind == StepFailed:
		s.sink.RequestFailed(subject, step.Diagnostic)
		s.cb.failed(step.Diagnostic)
	case streaming:
		s.sink.RequestAbandoned(subject)
	}
}

// Close releases the connection and cancels a pending auto-start. It is
// idempotent and never blocks on the read loop, so it may be called from a
// callback. Use Done to wait for the loop to exit.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.state == Closed {
		s.mu.Unlock()
		return nil
	}
	s.state = Closed
	if s.autoStart != nil {
		s.autoStart.Stop()
		s.autoStart = nil
	}
	conn := s.conn
	s.conn = nil
	subject := s.acc.Subject()
	streaming := s.acc.State() == Streaming
	s.broadcastLocked()
	s.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
		// transportEnded already reported a request whose connection dropped.
		if streaming {
			s.sink.RequestAbandoned(subject)
		}
	}
	s.notifyState(Closed)
	return err
}

// Done is closed once the read loop has exited. It is closed immediately for
// a session that never connected.
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readDone == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.readDone
}

// Await blocks until the current request ends and returns the final report.
// A failed request returns PROTOCOL_ERROR with the backend diagnostic; a
// request left streaming by a lost connection returns STREAM_ABANDONED.
// While idle, Await waits for a request to start as long as the session is
// connected. Only ctx bounds the wait.
func (s *Session) Await(ctx context.Context) (string, error) {
	for {
		s.mu.Lock()
		conn, st := s.state, s.acc.State()
		text, subject, diag, abandoned := s.acc.Text(), s.acc.Subject(), s.acc.Diagnostic(), s.acc.Abandoned()
		changed := s.changed
		s.mu.Unlock()

		switch {
		case st == Completed:
			return text, nil
		case st == Failed && abandoned:
			return "", errors.StreamAbandoned(subject)
		case st == Failed:
			return "", errors.Protocol(diag)
		case st == Streaming && conn != Connected:
			return "", errors.StreamAbandoned(subject)
		case st == Idle && conn == Closed:
			return "", errors.SessionClosed()
		case st == Idle && conn == Disconnected:
			return "", errors.NotConnected(conn.String())
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return "", errors.Timeout("await analysis").WithCause(ctx.Err())
		}
	}
}

// ConnectionState returns the transport state.
func (s *Session) ConnectionState() ConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AnalysisState returns the state of the current request.
func (s *Session) AnalysisState() AnalysisState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.State()
}

// AccumulatedText returns the report accumulated so far.
func (s *Session) AccumulatedText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acc.Text()
}

// Snapshot copies the session state under one lock.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		SessionID:      s.id,
		Connection:     s.state,
		Analysis:       s.acc.State(),
		SubjectID:      s.acc.Subject(),
		Text:           s.acc.Text(),
		FirstChunkSeen: s.acc.FirstChunkSeen(),
		Chunks:         s.acc.Chunks(),
		Diagnostic:     s.acc.Diagnostic(),
	}
}

func (s *Session) notifyState(state ConnectionState) {
	s.sink.ConnectionChanged(state)
	s.cb.connectionState(state)
}

func (s *Session) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}
