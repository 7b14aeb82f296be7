package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sse"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/testutil"
)

// readEvent 读取下一个 event: 行
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("read stream: %v", err)
		}
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestEventsStream(t *testing.T) {
	hub := sse.NewHub(nil)
	srv := httptest.NewServer(newRouter(&service.Services{Events: hub}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/v1/eventos?id_carga=3&token="+testutil.DefaultTestToken(), nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Unexpected content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	name, data := readEvent(t, r)
	if name != "connected" {
		t.Fatalf("Expected connected event, got %q", name)
	}
	var hello struct {
		ClientID string `json:"client_id"`
	}
	if err := json.Unmarshal([]byte(data), &hello); err != nil || hello.ClientID == "" {
		t.Fatalf("Unexpected connected payload %q: %v", data, err)
	}

	hub.PublishScan(sse.ScanEvent{ShipmentID: 9, BoxID: 1})
	hub.PublishScan(sse.ScanEvent{ShipmentID: 3, BoxID: 2, Code: "QRD_PL_1_1_abcd1234"})

	name, data = readEvent(t, r)
	if name != sse.EventScan || !strings.Contains(data, `"id_qr":2`) {
		t.Errorf("Unexpected event %s %s", name, data)
	}
}

func TestEventsStreamConnectedPayloadIsJSON(t *testing.T) {
	srv := httptest.NewServer(newRouter(&service.Services{Events: sse.NewHub(nil)}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	token := testutil.GenerateTestToken(`op"1\`+"\n", "Operador", "op@test.com", nil)
	req, _ := http.NewRequestWithContext(ctx, "GET", srv.URL+"/api/v1/eventos?token="+token, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()

	name, data := readEvent(t, bufio.NewReader(resp.Body))
	if name != "connected" {
		t.Fatalf("Expected connected event, got %q", name)
	}
	var hello struct {
		ClientID string `json:"client_id"`
	}
	if err := json.Unmarshal([]byte(data), &hello); err != nil {
		t.Fatalf("Connected payload is not JSON %q: %v", data, err)
	}
	if !strings.HasPrefix(hello.ClientID, `op"1\`+"\n_") {
		t.Errorf("Unexpected client id %q", hello.ClientID)
	}
}

func TestEventsStreamRejectsBadID(t *testing.T) {
	r := newRouter(&service.Services{Events: sse.NewHub(nil)})
	w := testutil.DoRequest(r, "GET", "/api/v1/eventos?id_carga=abc", nil, testutil.DefaultTestToken())
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}
