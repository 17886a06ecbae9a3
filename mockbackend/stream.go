package mockbackend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/logger"
	"github.com/amobagan/nutristream/stream"
)

const fragmentWords = 4

// handleStream authenticates the token query parameter, upgrades, and
// answers requests on the connection one at a time.
func (s *Server) handleStream(c *gin.Context) {
	claims, err := s.verifier.Verify(c.Query("token"))
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("upgrade failed", logger.Fields(logger.FieldError, err.Error()))
		return
	}
	if !s.track(conn) {
		_ = conn.Close()
		return
	}
	defer s.untrack(conn)
	defer conn.Close()

	// The HTTP server's read deadline survives the hijack.
	_ = conn.SetReadDeadline(time.Time{})
	conn.SetReadLimit(s.cfg.MaxMessageBytes)

	log := s.log.WithFields(logger.Fields(
		"conn_id", uuid.NewString(),
		ctxRequestID, c.GetString(ctxRequestID),
		ctxSubject, claims.Subject,
		logger.FieldRemoteAddr, conn.RemoteAddr().String(),
	))
	log.Info("stream opened")
	s.serveStream(s.baseCtx, conn, claims.Subject, log)
	log.Info("stream closed")
}

func (s *Server) serveStream(ctx context.Context, conn *websocket.Conn, subject string, log *logger.Logger) {
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
				stderrors.Is(err, net.ErrClosed) {
				return
			}
			log.Warn("read failed", logger.Fields(logger.FieldError, err.Error()))
			return
		}

		var raw struct {
			Barcode string `json:"barcode"`
		}
		if err := json.Unmarshal(frame, &raw); err != nil {
			if s.send(conn, stream.Failure{Content: "Request is not valid JSON."}) != nil {
				return
			}
			continue
		}
		req, err := stream.NewRequest(raw.Barcode)
		if err != nil {
			if s.send(conn, stream.Failure{Content: failureText(err)}) != nil {
				return
			}
			continue
		}

		if !s.limiter.Allow(subject) {
			log.Info("request throttled", logger.Fields(logger.FieldSubjectID, req.Barcode))
			if s.send(conn, stream.Failure{Content: RateLimitedDiagnostic}) != nil {
				return
			}
			continue
		}

		if err := s.streamAnalysis(ctx, conn, req.Barcode, log); err != nil {
			if ctx.Err() == nil {
				log.Warn("stream write failed", logger.Fields(
					logger.FieldSubjectID, req.Barcode,
					logger.FieldError, err.Error(),
				))
			}
			return
		}
	}
}

// streamAnalysis sends the report as paced chunks then the complete
// message. A non-nil return means the connection is unusable.
func (s *Server) streamAnalysis(ctx context.Context, conn *websocket.Conn, barcode string, log *logger.Logger) error {
	start := time.Now()
	a, err := s.analyzer.Analyze(ctx, barcode)
	if err != nil {
		log.Info("analysis failed", logger.Fields(logger.FieldSubjectID, barcode, logger.FieldError, err.Error()))
		return s.send(conn, stream.Failure{Content: failureText(err)})
	}

	fragments := a.Fragments(fragmentWords)
	for _, f := range fragments {
		if err := s.send(conn, stream.Chunk{Content: f.Text, Section: f.Section}); err != nil {
			return err
		}
		if err := pause(ctx, s.cfg.ChunkDelay); err != nil {
			return err
		}
	}

	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	if err := s.send(conn, stream.Complete{Content: a.Report(), Data: data}); err != nil {
		return err
	}
	log.Info("analysis streamed", logger.Fields(
		logger.FieldSubjectID, barcode,
		logger.FieldChunkCount, len(fragments),
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// send writes one message. Only the connection's handler goroutine calls it.
func (s *Server) send(conn *websocket.Conn, m stream.Message) error {
	frame, err := stream.EncodeMessage(m)
	if err != nil {
		return err
	}
	if s.cfg.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	}
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func failureText(err error) string {
	if appErr, ok := errors.AsAppError(err); ok {
		return appErr.Message
	}
	return "Analysis failed."
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
