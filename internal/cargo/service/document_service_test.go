package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/label"
	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

func newDocumentService(store *memStore, objects *memObjects) *DocumentService {
	renderer := label.NewRenderer()
	qr := NewQRService(store, renderer, nil, zap.NewNop())
	svc := NewDocumentService(store, qr, label.NewAssembler(renderer), nil, time.Hour, zap.NewNop())
	if objects != nil {
		svc.store = objects
	}
	svc.now = func() time.Time { return time.Date(2025, 3, 9, 10, 0, 0, 0, time.UTC) }
	return svc
}

func pageCount(t *testing.T, data []byte) int {
	t.Helper()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	return r.NumPage()
}

func TestBuildDocument(t *testing.T) {
	store := newMemStore()
	id := seed(t, store, "PL-DOC-1", "2", "3")
	svc := newDocumentService(store, nil)
	ctx := context.Background()

	doc, err := svc.Build(ctx, id, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if doc.Filename != "QR-PL-DOC-1.pdf" {
		t.Errorf("Unexpected filename %q", doc.Filename)
	}
	if n := pageCount(t, doc.Data); n != 5 || doc.Pages != 5 {
		t.Errorf("Expected 5 pages, got %d (%d)", n, doc.Pages)
	}

	compact, err := svc.Build(ctx, id, true)
	if err != nil {
		t.Fatalf("Build compact: %v", err)
	}
	if compact.Filename != "QR-PL-DOC-1-compacto.pdf" || pageCount(t, compact.Data) != 1 {
		t.Errorf("Unexpected compact document %q, %d pages", compact.Filename, compact.Pages)
	}
}

func TestBuildDocumentEmptyAndMissing(t *testing.T) {
	store := newMemStore()
	id := seed(t, store, "PL-DOC-2", "0")
	svc := newDocumentService(store, nil)

	doc, err := svc.Build(context.Background(), id, false)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if pageCount(t, doc.Data) != 1 {
		t.Errorf("Expected a single page for a shipment without boxes")
	}

	_, err = svc.Build(context.Background(), 31337, false)
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrDocumentBuild) {
		t.Errorf("Expected ErrNotFound only, got %v", err)
	}
}

func TestBuildDocumentRenderFailure(t *testing.T) {
	store := newMemStore()
	req := validRequest("PL-DOC-3", dataRow("R", strings.Repeat("descripción muy larga ", 200), "1"))
	res, err := newShipmentService(store).Save(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	svc := newDocumentService(store, nil)

	_, err = svc.Build(context.Background(), res.ShipmentID, false)
	if !errors.Is(err, ErrDocumentBuild) {
		t.Fatalf("Expected ErrDocumentBuild, got %v", err)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("Build failure must be distinct from not found")
	}
}

func TestArchiveDocument(t *testing.T) {
	store := newMemStore()
	id := seed(t, store, "PL-DOC-4", "1")
	ctx := context.Background()

	if _, err := newDocumentService(store, nil).Archive(ctx, id, false); !errors.Is(err, ErrStorageDisabled) {
		t.Fatalf("Expected ErrStorageDisabled, got %v", err)
	}

	objects := newMemObjects()
	svc := newDocumentService(store, objects)
	archived, err := svc.Archive(ctx, id, true)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Key != "pdf/2025/03/09/QR-PL-DOC-4-compacto.pdf" {
		t.Errorf("Unexpected key %q", archived.Key)
	}
	if objects.types[archived.Key] != "application/pdf" || len(objects.objects[archived.Key]) != archived.Size {
		t.Error("Document not stored as application/pdf")
	}
	if !strings.HasPrefix(archived.URL, "https://objects.test/pdf/") || !strings.Contains(archived.URL, "expires=3600") {
		t.Errorf("Unexpected URL %q", archived.URL)
	}
}
