package wsclient

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/amobagan/nutristream/errors"
	"github.com/amobagan/nutristream/stream"
)

// scriptedServer upgrades connections carrying token "good", reads one
// request, replies with frames, then closes normally.
func scriptedServer(t *testing.T, frames []string, got chan<- map[string]string) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != DefaultPath {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("token") != "good" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		var req map[string]string
		if err := ws.ReadJSON(&req); err != nil {
			return
		}
		req["user_agent"] = r.Header.Get("User-Agent")
		if got != nil {
			got <- req
		}
		for _, f := range frames {
			if err := ws.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
		_, _, _ = ws.ReadMessage()
	}))
}

func newTestClient(t *testing.T, endpoint string) *Client {
	t.Helper()
	c, err := New(Config{Endpoint: endpoint}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestDialSendRecv(t *testing.T) {
	got := make(chan map[string]string, 1)
	srv := scriptedServer(t, []string{
		`{"type":"stream_chunk","content":"Cal","section":"macros"}`,
		`not json`,
		`{"type":"heartbeat"}`,
		`{"type":"stream_complete","content":"Calories: 120"}`,
	}, got)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := c.Dial(ctx, "good")
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if err := conn.Send(stream.Request{Barcode: "737628064502"}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	req := <-got
	if req["barcode"] != "737628064502" {
		t.Errorf("server got %v", req)
	}
	if !strings.HasPrefix(req["user_agent"], "nutristream/") {
		t.Errorf("user agent = %q", req["user_agent"])
	}

	msg, err := conn.Recv()
	if err != nil {
		t.Fatalf("Recv chunk: %v", err)
	}
	if chunk, ok := msg.(stream.Chunk); !ok || chunk.Content != "Cal" || chunk.Section != "macros" {
		t.Errorf("chunk = %#v", msg)
	}

	if _, err := conn.Recv(); !errors.IsCode(err, errors.ErrCodeMalformedMessage) {
		t.Fatalf("malformed frame = %v", err)
	}

	msg, err = conn.Recv()
	if err != nil || msg.Kind() != "heartbeat" {
		t.Fatalf("unknown frame = %#v, %v", msg, err)
	}

	msg, err = conn.Recv()
	if err != nil {
		t.Fatalf("Recv complete: %v", err)
	}
	if done, ok := msg.(stream.Complete); !ok || done.Content != "Calories: 120" {
		t.Errorf("complete = %#v", msg)
	}

	if _, err := conn.Recv(); err != io.EOF {
		t.Errorf("normal close = %v, want io.EOF", err)
	}
}

func TestDialRejectedCredential(t *testing.T) {
	srv := scriptedServer(t, nil, nil)
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Dial(context.Background(), "bad")
	if !errors.IsCode(err, errors.ErrCodeUnauthorized) {
		t.Fatalf("Dial = %v", err)
	}
	if strings.Contains(err.Error(), "bad") {
		t.Errorf("credential leaked into error: %v", err)
	}
}

func TestDialUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	c := newTestClient(t, endpoint)
	_, err := c.Dial(context.Background(), "good")
	if !errors.IsCode(err, errors.ErrCodeConnectionFailed) {
		t.Fatalf("Dial = %v", err)
	}
	if c.IsAvailable(context.Background()) {
		t.Error("closed server reported available")
	}
}

func TestIsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	c := newTestClient(t, srv.URL)
	if !c.IsAvailable(context.Background()) {
		t.Error("running server reported unavailable")
	}
	if c.Name() != "nutrition-ws" {
		t.Errorf("name = %q", c.Name())
	}
}

func TestCloseSendsNormalClosure(t *testing.T) {
	closed := make(chan int, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		_, _, err = ws.ReadMessage()
		if ce, ok := err.(*websocket.CloseError); ok {
			closed <- ce.Code
			return
		}
		closed <- -1
	}))
	defer srv.Close()

	conn, err := newTestClient(t, srv.URL).Dial(context.Background(), "any")
	if err != nil {
		t.Fatal(err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_ = conn.Close()

	select {
	case code := <-closed:
		if code != websocket.CloseNormalClosure {
			t.Errorf("close code = %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw the close frame")
	}
}

func TestDialTLSWithCAFile(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = ws.Close()
	}))
	defer srv.Close()

	caFile := filepath.Join(t.TempDir(), "ca.pem")
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: srv.Certificate().Raw})
	if err := os.WriteFile(caFile, pemBytes, 0o600); err != nil {
		t.Fatal(err)
	}

	plain := newTestClient(t, srv.URL)
	if _, err := plain.Dial(context.Background(), "t"); err == nil {
		t.Fatal("untrusted certificate should fail")
	}

	c, err := New(Config{Endpoint: srv.URL, TLS: TLSConfig{CAFile: caFile}}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !strings.HasPrefix(c.Endpoint(), "wss://") {
		t.Errorf("endpoint = %q", c.Endpoint())
	}
	conn, err := c.Dial(context.Background(), "t")
	if err != nil {
		t.Fatalf("Dial with CA: %v", err)
	}
	_ = conn.Close()
}

func TestRequestWireFormat(t *testing.T) {
	b, _ := json.Marshal(stream.Request{Barcode: "1"})
	if string(b) != `{"barcode":"1"}` {
		t.Errorf("wire = %s", b)
	}
}
