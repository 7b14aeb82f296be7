package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/codegen"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/sheet"
	"go.uber.org/zap"
)

// dataRow 按模板列构造一行
func dataRow(ref, desc, boxes string) sheet.Row {
	values := make([]string, len(sheet.TemplateHeaders))
	values[sheet.ColDate] = "2025-03-09"
	values[sheet.ColClientMark] = "ACME"
	values[sheet.ColPhone] = "3001234567"
	values[sheet.ColDestination] = "Medellín"
	values[sheet.ColRef] = ref
	values[sheet.ColDescription] = desc
	values[sheet.ColBoxes] = boxes
	values[sheet.ColCBM] = "0.05"
	values[sheet.ColWeight] = "12,5"
	return sheet.Strings(values...)
}

func validRequest(code string, rows ...sheet.Row) *SaveShipmentRequest {
	return &SaveShipmentRequest{
		Client: ClientInput{
			Name:            "José Pérez",
			Email:           "jose@example.com",
			Phone:           "3001234567",
			DeliveryAddress: "Calle 10 # 20-30",
		},
		Shipment: ShipmentInput{Code: code, Destination: "Medellín"},
		Headers:  sheet.TemplateHeaders[:],
		Rows:     rows,
	}
}

func newShipmentService(store ShipmentStore) *ShipmentService {
	return NewShipmentService(store, codegen.New(nil), zap.NewNop())
}

func TestSaveExpandsBoxes(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)

	req := validRequest("PL-20250309-001-0001",
		dataRow("A-1", "Taza", "1"),
		dataRow("A-2", "Plato", "2"),
		dataRow("A-3", "Vaso", "3"),
	)
	res, err := svc.Save(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if res.Articles != 3 || res.Boxes != 6 {
		t.Fatalf("Expected 3 articles and 6 boxes, got %+v", res)
	}

	saved := store.shipments[res.ShipmentID]
	sum := 0
	for _, a := range saved.Articles {
		sum += a.BoxCount
		if len(a.Boxes) != a.BoxCount {
			t.Errorf("article %d: %d boxes for count %d", a.Position, len(a.Boxes), a.BoxCount)
		}
		for i, b := range a.Boxes {
			if b.Number != i+1 || b.Total != a.BoxCount {
				t.Errorf("article %d box %d: numero_caja=%d total=%d", a.Position, i, b.Number, b.Total)
			}
			prefix := fmt.Sprintf("QRD_PL-20250309-001-0001_%d_%d_", a.Position, b.Number)
			if !strings.HasPrefix(b.Code, prefix) {
				t.Errorf("Unexpected box code %q", b.Code)
			}
			if b.Payload.Code != b.Code || b.Payload.Shipment != saved.Code || b.Payload.Destination != "Medellín" {
				t.Errorf("Unexpected payload %+v", b.Payload)
			}
		}
	}
	if sum != res.Boxes {
		t.Errorf("Sum of box counts %d != boxes %d", sum, res.Boxes)
	}
	if saved.Articles[2].Boxes[2].Total != 3 {
		t.Errorf("Expected total_cajas 3")
	}
	if saved.Articles[0].Weight.String() != "12.5" {
		t.Errorf("Expected comma decimal weight 12.5, got %s", saved.Articles[0].Weight)
	}
	if saved.CreatedBy != "u1" {
		t.Errorf("Expected creator u1, got %q", saved.CreatedBy)
	}
}

func TestSaveBoxCountRules(t *testing.T) {
	tests := []struct {
		boxes   string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"0", 0, false},
		{"4", 4, false},
		{"-1", 0, true},
		{"2.5", 0, true},
		{"muchas", 0, true},
	}
	for _, tt := range tests {
		t.Run("cajas="+tt.boxes, func(t *testing.T) {
			store := newMemStore()
			svc := newShipmentService(store)
			res, err := svc.Save(context.Background(), "u1", validRequest("PL-X-1", dataRow("R", "D", tt.boxes)))
			if tt.wantErr {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("Expected ValidationError, got %v", err)
				}
				if store.creates != 0 {
					t.Error("Store was written on validation failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("Save: %v", err)
			}
			if res.Boxes != tt.want {
				t.Errorf("Expected %d boxes, got %d", tt.want, res.Boxes)
			}
		})
	}
}

func TestSaveValidation(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)

	req := validRequest("", dataRow("R", "D", "1"))
	req.Client.Name = " "
	req.Client.Email = "no-es-correo"
	req.Shipment.Destination = ""

	_, err := svc.Save(context.Background(), "u1", req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	fields := map[string]string{}
	for _, f := range verr.Fields {
		fields[f.Field] = f.Message
	}
	for field, msg := range map[string]string{
		"nombre_cliente":    "El nombre del cliente es requerido",
		"correo_cliente":    "El correo electrónico no tiene un formato válido",
		"codigo_carga":      "El código del packing list es requerido",
		"direccion_destino": "La dirección de destino es requerida",
	} {
		if fields[field] != msg {
			t.Errorf("%s: got %q, want %q", field, fields[field], msg)
		}
	}
	if store.creates != 0 {
		t.Error("Store was written on validation failure")
	}
}

func TestSaveRejectsNoRows(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)

	req := validRequest("PL-1", sheet.Strings("", " ", ""))
	_, err := svc.Save(context.Background(), "u1", req)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields[0].Field != "filas" {
		t.Fatalf("Expected filas validation error, got %v", err)
	}
	if store.creates != 0 {
		t.Error("Store was written for an empty packing list")
	}
}

func TestSaveRejectsInconsistentStats(t *testing.T) {
	cases := []struct {
		name  string
		stats sheet.Stats
	}{
		{"row counted twice", sheet.Stats{TotalRows: 1, ValidRows: 5, ErrorRows: 5}},
		{"classes do not add up", sheet.Stats{TotalRows: 4, ValidRows: 1, ErrorRows: 1}},
		{"fewer valid rows than articles", sheet.Stats{TotalRows: 2, ErrorRows: 2}},
		{"negative", sheet.Stats{TotalRows: 0, ValidRows: 1, ErrorRows: -1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newMemStore()
			svc := newShipmentService(store)

			req := validRequest("PL-ST-1", dataRow("R", "D", "2"))
			req.Stats = tc.stats
			_, err := svc.Save(context.Background(), "u1", req)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != "estadisticas" {
				t.Errorf("Unexpected fields %+v", verr.Fields)
			}
			if store.creates != 0 {
				t.Error("Store was written with inconsistent stats")
			}
		})
	}
}

func TestSaveStats(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)
	ctx := context.Background()

	req := validRequest("PL-ST-2", dataRow("R", "D", "1"))
	req.Stats = sheet.Stats{TotalRows: 3, ValidRows: 1, ErrorRows: 1, EmptyRows: 1, Columns: 26, HeaderRows: 5}
	res, err := svc.Save(ctx, "u1", req)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	st := store.shipments[res.ShipmentID].Stats
	if st.TotalRows != 3 || st.ValidRows != 1 || st.ErrorRows != 1 || st.EmptyRows != 1 || st.HeaderRows != 5 {
		t.Errorf("Stats not kept: %+v", st)
	}

	// 未提供统计时按提交的行计算
	req = validRequest("PL-ST-3", dataRow("R1", "D", "1"), sheet.Strings("", ""), dataRow("R2", "D", "1"))
	res, err = svc.Save(ctx, "u1", req)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	st = store.shipments[res.ShipmentID].Stats
	if st.TotalRows != 3 || st.ValidRows != 2 || st.EmptyRows != 1 || st.ErrorRows != 0 {
		t.Errorf("Unexpected derived stats: %+v", st)
	}
}

func TestSaveRejectsLongFields(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)

	req := validRequest(strings.Repeat("P", 200), dataRow("R", "D", "1"))
	req.Client.Phone = strings.Repeat("3", 65)
	_, err := svc.Save(context.Background(), "u1", req)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	fields := map[string]bool{}
	for _, f := range verr.Fields {
		fields[f.Field] = true
	}
	if !fields["codigo_carga"] || !fields["telefono_cliente"] {
		t.Errorf("Expected codigo_carga and telefono_cliente errors, got %+v", verr.Fields)
	}
	if store.creates != 0 {
		t.Error("Store was written for an oversized code")
	}

	// 恰好 64 个字符可以保存
	if _, err := svc.Save(context.Background(), "u1", validRequest(strings.Repeat("P", 64), dataRow("R", "D", "1"))); err != nil {
		t.Errorf("Save with a 64 character code: %v", err)
	}
}

func TestSaveDuplicateCode(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)
	ctx := context.Background()

	if _, err := svc.Save(ctx, "u1", validRequest("PL-DUP-1", dataRow("R", "D", "1"))); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, err := svc.Save(ctx, "u1", validRequest("PL-DUP-1", dataRow("R", "D", "2")))
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("Expected ErrDuplicateCode, got %v", err)
	}
	if len(store.shipments) != 1 {
		t.Errorf("Expected one stored shipment, got %d", len(store.shipments))
	}

	// 并发情况下由数据库唯一约束兜底
	store.createErr = ErrDuplicateCode
	_, err = svc.Save(ctx, "u1", validRequest("PL-DUP-2", dataRow("R", "D", "1")))
	if !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("Expected ErrDuplicateCode from store, got %v", err)
	}
}

func TestSaveResolvesShuffledHeaders(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)

	req := validRequest("PL-HDR-1", sheet.Strings("Taza grande", "REF-9", "5"))
	req.Headers = []string{"DESCRIPCION ESPAÑOL", "REF ART", "CANT CAJAS"}
	res, err := svc.Save(context.Background(), "u1", req)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	a := store.shipments[res.ShipmentID].Articles[0]
	if a.Description != "Taza grande" || a.Ref != "REF-9" || a.BoxCount != 5 {
		t.Errorf("Headers not resolved: %+v", a)
	}
}

func TestGenerateCodeFallback(t *testing.T) {
	svc := NewShipmentService(newMemStore(), codegen.New(codegen.SourceFunc(func(context.Context) (string, error) {
		return "", errors.New("sequence unavailable")
	})), zap.NewNop())
	res := svc.GenerateCode(context.Background())
	if res.Strategy != codegen.StrategyFallback || !codegen.FallbackPattern.MatchString(res.Code) {
		t.Errorf("Unexpected fallback result %+v", res)
	}
}

func TestGetShipment(t *testing.T) {
	store := newMemStore()
	svc := newShipmentService(store)
	ctx := context.Background()

	res, err := svc.Save(ctx, "u1", validRequest("PL-GET-1", dataRow("R1", "D1", "1"), dataRow("R2", "D2", "1")))
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	s, err := svc.Get(ctx, res.ShipmentID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(s.Articles) != 2 || s.Client.Email != "jose@example.com" {
		t.Errorf("Unexpected shipment %+v", s)
	}
	if _, err := svc.GetByCode(ctx, " PL-GET-1 "); err != nil {
		t.Errorf("GetByCode: %v", err)
	}
	if _, err := svc.Get(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
