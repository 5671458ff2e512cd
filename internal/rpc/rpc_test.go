package rpc

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xvierd/mootimer/internal/bus"
	"github.com/xvierd/mootimer/internal/domain"
)

func testRouter() *Router {
	router := NewRouter()
	router.Register("echo", func(params json.RawMessage) (any, error) {
		var req struct {
			Value string `json:"value"`
		}
		if err := DecodeParams(params, &req); err != nil {
			return nil, err
		}
		return map[string]string{"value": req.Value}, nil
	})
	router.Register("fail.validation", func(params json.RawMessage) (any, error) {
		return nil, domain.Validationf("value out of range")
	})
	router.Register("fail.notfound", func(params json.RawMessage) (any, error) {
		return nil, domain.ErrNotFound
	})
	return router
}

func rawID(t *testing.T, v any) *json.RawMessage {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal id: %v", err)
	}
	raw := json.RawMessage(data)
	return &raw
}

func TestRouter_Dispatch(t *testing.T) {
	router := testRouter()

	t.Run("success", func(t *testing.T) {
		resp := router.Dispatch(&Request{
			Jsonrpc: Version,
			ID:      rawID(t, 1),
			Method:  "echo",
			Params:  json.RawMessage(`{"value":"hi"}`),
		})
		if resp.Error != nil {
			t.Fatalf("Dispatch() error = %v", resp.Error)
		}
		result, ok := resp.Result.(map[string]string)
		if !ok || result["value"] != "hi" {
			t.Errorf("result = %v, want value=hi", resp.Result)
		}
	})

	t.Run("unknown method", func(t *testing.T) {
		resp := router.Dispatch(&Request{Jsonrpc: Version, ID: rawID(t, 2), Method: "nope"})
		if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
			t.Errorf("error = %v, want code %d", resp.Error, CodeMethodNotFound)
		}
	})

	t.Run("wrong protocol version", func(t *testing.T) {
		resp := router.Dispatch(&Request{Jsonrpc: "1.0", ID: rawID(t, 3), Method: "echo"})
		if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
			t.Errorf("error = %v, want code %d", resp.Error, CodeInvalidRequest)
		}
	})

	t.Run("invalid params", func(t *testing.T) {
		resp := router.Dispatch(&Request{
			Jsonrpc: Version,
			ID:      rawID(t, 4),
			Method:  "echo",
			Params:  json.RawMessage(`{"value":42}`),
		})
		if resp.Error == nil || resp.Error.Code != CodeInvalidParams {
			t.Errorf("error = %v, want code %d", resp.Error, CodeInvalidParams)
		}
	})

	t.Run("validation error maps to server error", func(t *testing.T) {
		resp := router.Dispatch(&Request{Jsonrpc: Version, ID: rawID(t, 5), Method: "fail.validation"})
		if resp.Error == nil || resp.Error.Code != CodeServerError {
			t.Errorf("error = %v, want code %d", resp.Error, CodeServerError)
		}
		if resp.Error.Message != "value out of range" {
			t.Errorf("message = %q, want %q", resp.Error.Message, "value out of range")
		}
	})

	t.Run("sentinel error maps to server error", func(t *testing.T) {
		resp := router.Dispatch(&Request{Jsonrpc: Version, ID: rawID(t, 6), Method: "fail.notfound"})
		if resp.Error == nil || resp.Error.Code != CodeServerError {
			t.Errorf("error = %v, want code %d", resp.Error, CodeServerError)
		}
	})

	t.Run("notification gets no response", func(t *testing.T) {
		resp := router.Dispatch(&Request{Jsonrpc: Version, Method: "echo", Params: json.RawMessage(`{"value":"x"}`)})
		if resp != nil {
			t.Errorf("Dispatch(notification) = %v, want nil", resp)
		}
	})
}

func startTestServer(t *testing.T, events *bus.Bus) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "moot")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	socketPath := filepath.Join(dir, "rpc.sock")
	server := NewServer(socketPath, testRouter(), events)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(server.Stop)
	return socketPath
}

func TestServer_CallAndNotify(t *testing.T) {
	events := bus.New()
	socketPath := startTestServer(t, events)

	client, err := Dial(socketPath)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer client.Close()

	t.Run("round trip", func(t *testing.T) {
		var result struct {
			Value string `json:"value"`
		}
		if err := client.Call("echo", map[string]string{"value": "ping"}, &result); err != nil {
			t.Fatalf("Call() error = %v", err)
		}
		if result.Value != "ping" {
			t.Errorf("result = %q, want %q", result.Value, "ping")
		}
	})

	t.Run("server error surfaces to caller", func(t *testing.T) {
		err := client.Call("fail.validation", nil, nil)
		var rpcErr *Error
		if !errors.As(err, &rpcErr) || rpcErr.Code != CodeServerError {
			t.Errorf("Call() error = %v, want server error", err)
		}
	})

	t.Run("events arrive as notifications", func(t *testing.T) {
		events.EmitTimer(domain.TimerEvent{
			TimerID:   "t1",
			ProfileID: "work",
			Event:     domain.TimerEventKind{Type: domain.TimerStarted},
		})

		select {
		case n := <-client.Notifications():
			if n.Method != "timer.event" {
				t.Errorf("notification method = %q, want timer.event", n.Method)
			}
			var ev domain.TimerEvent
			if err := json.Unmarshal(n.Params, &ev); err != nil {
				t.Fatalf("unmarshal notification: %v", err)
			}
			if ev.TimerID != "t1" || ev.Event.Type != domain.TimerStarted {
				t.Errorf("event = %+v, want t1 started", ev)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notification")
		}
	})
}

func TestServer_MalformedLineKeepsConnection(t *testing.T) {
	events := bus.New()
	socketPath := startTestServer(t, events)

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	reader := bufio.NewReader(conn)

	if _, err := conn.Write([]byte("this is not json\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("ReadBytes() error = %v", err)
	}
	var resp struct {
		ID    *json.RawMessage `json:"id"`
		Error *Error           `json:"error"`
	}
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != CodeParseError {
		t.Errorf("error = %v, want code %d", resp.Error, CodeParseError)
	}
	if resp.ID != nil {
		t.Errorf("id = %s, want null", *resp.ID)
	}

	// The connection must survive and serve the next request.
	if _, err := conn.Write([]byte(`{"jsonrpc":"2.0","id":7,"method":"echo","params":{"value":"still here"}}` + "\n")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	line, err = reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("ReadBytes() after parse error = %v", err)
	}
	var ok struct {
		Result struct {
			Value string `json:"value"`
		} `json:"result"`
	}
	if err := json.Unmarshal(line, &ok); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if ok.Result.Value != "still here" {
		t.Errorf("result = %q, want %q", ok.Result.Value, "still here")
	}
}

func TestServer_StopUnblocksStalledClient(t *testing.T) {
	events := bus.New()
	dir, err := os.MkdirTemp("", "moot")
	if err != nil {
		t.Fatalf("MkdirTemp() error = %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	socketPath := filepath.Join(dir, "rpc.sock")
	server := NewServer(socketPath, testRouter(), events)
	if err := server.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()

	// Flood large echo requests without ever reading a response. The
	// connection's kernel buffers and write queue fill up, the writer
	// blocks, and the reader backs up behind it.
	req, err := json.Marshal(Request{
		Jsonrpc: Version,
		ID:      rawID(t, 1),
		Method:  "echo",
		Params:  json.RawMessage(`{"value":"` + strings.Repeat("x", 64*1024) + `"}`),
	})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	line := append(req, '\n')
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 2000; i++ {
		if _, err := conn.Write(line); err != nil {
			break
		}
	}

	stopped := make(chan struct{})
	go func() {
		server.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return while a client had stopped reading")
	}
}

func TestServer_RejectsSecondDaemon(t *testing.T) {
	events := bus.New()
	socketPath := startTestServer(t, events)

	second := NewServer(socketPath, testRouter(), events)
	if err := second.Start(); err == nil {
		second.Stop()
		t.Fatal("second Start() on live socket succeeded, want error")
	}
}
