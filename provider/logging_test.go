package provider

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/amobagan/nutristream/logger"
)

type scriptedStream struct {
	sendErr  error
	recvs    []string
	recvErr  error
	closed   int
	sent     []string
	closeErr error
}

func (s *scriptedStream) Send(v string) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.sent = append(s.sent, v)
	return nil
}

func (s *scriptedStream) Recv() (string, error) {
	if len(s.recvs) == 0 {
		return "", s.recvErr
	}
	v := s.recvs[0]
	s.recvs = s.recvs[1:]
	return v, nil
}

func (s *scriptedStream) Close() error {
	s.closed++
	return s.closeErr
}

func bufferLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.NewWithWriter(&logger.Config{Level: "debug", Format: logger.FormatJSON}, buf, "test")
}

func TestLogged_PassesThrough(t *testing.T) {
	var buf bytes.Buffer
	inner := &scriptedStream{recvs: []string{"a"}, recvErr: io.EOF}
	s := Logged[string, string](inner, "ws", bufferLogger(&buf))

	if err := s.Send("x"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	v, err := s.Recv()
	if err != nil || v != "a" {
		t.Fatalf("Recv = %q, %v", v, err)
	}
	if _, err := s.Recv(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(inner.sent) != 1 || inner.closed != 1 {
		t.Errorf("inner not driven: sent=%v closed=%d", inner.sent, inner.closed)
	}
	out := buf.String()
	if !strings.Contains(out, "provider stream ended") || strings.Contains(out, "recv failed") {
		t.Errorf("EOF should log at debug only, got %q", out)
	}
}

func TestLogged_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	inner := &scriptedStream{sendErr: fmt.Errorf("broken pipe"), recvErr: fmt.Errorf("reset")}
	s := Logged[string, string](inner, "ws", bufferLogger(&buf))

	if err := s.Send("x"); err == nil {
		t.Fatal("expected send error")
	}
	if _, err := s.Recv(); err == nil {
		t.Fatal("expected recv error")
	}

	out := buf.String()
	for _, want := range []string{"provider send failed", "broken pipe", "provider recv failed", "reset", `"provider":"ws"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}
