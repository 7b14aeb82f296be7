package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/codegen"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
	"go.uber.org/zap"
)

func (a *app) importCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	file := fs.String("file", "", "packing list (.xlsx/.xls)")
	out := fs.String("out", "", "write the normalized result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return errors.New("import: -file is required")
	}

	f, err := os.Open(*file)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := a.client.ImportWorkbook(ctx, a.cred, *file, f)
	if err != nil {
		return err
	}
	s := res.Stats
	fmt.Fprintf(a.stdout, "filas: %d  válidas: %d  con error: %d  vacías: %d  fotos: %d/%d\n",
		s.TotalRows, s.ValidRows, s.ErrorRows, s.EmptyRows, res.Stored, res.Photos)
	for _, e := range res.ErrorRows {
		fmt.Fprintf(a.stdout, "  fila %d: %v\n", e.Line, e.Errors)
	}

	if *out != "" {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(*out, data, 0o644); err != nil {
			return err
		}
		a.logger.Info("import result written", zap.String("file", *out))
	}
	return nil
}

// codeCmd 远端失败时用本地兜底，Badger 账本防止重复
func (a *app) codeCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("code", flag.ContinueOnError)
	ledgerPath := fs.String("ledger", a.cfg.Codegen.BadgerPath, "ledger directory, empty for in-memory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	res, err := a.generate(ctx, *ledgerPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s\t%s\n", res.Code, res.Strategy)
	return nil
}

func (a *app) generate(ctx context.Context, ledgerPath string) (codegen.Result, error) {
	opts := []codegen.Option{
		codegen.WithLogger(a.logger.Named("codegen")),
		codegen.WithPrefix(a.cfg.Codegen.Prefix),
		codegen.WithAttempts(a.cfg.Codegen.Attempts),
	}
	if ledgerPath != "" {
		if err := os.MkdirAll(ledgerPath, 0o755); err != nil {
			return codegen.Result{}, err
		}
	}
	ledger, err := codegen.OpenBadgerLedger(ledgerPath, a.cfg.Codegen.LedgerTTL)
	if err != nil {
		a.logger.Warn("ledger unavailable, fallback codes are not checked", zap.Error(err))
	} else {
		defer ledger.Close()
		opts = append(opts, codegen.WithLedger(ledger))
	}
	return codegen.New(a.client.CodeSource(a.cred), opts...).Generate(ctx), nil
}

func (a *app) saveCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("save", flag.ContinueOnError)
	importFile := fs.String("import", "", "result written by `cargoctl import -out`")
	var req service.SaveShipmentRequest
	fs.StringVar(&req.Client.Name, "nombre", "", "client name")
	fs.StringVar(&req.Client.Email, "correo", "", "client email")
	fs.StringVar(&req.Client.Phone, "telefono", "", "client phone (defaults to the sheet)")
	fs.StringVar(&req.Client.DeliveryAddress, "direccion", "", "delivery address")
	fs.StringVar(&req.Shipment.Code, "codigo", "", "shipment code (generated when empty)")
	fs.StringVar(&req.Shipment.Destination, "destino", "", "destination (defaults to the sheet)")
	fs.StringVar(&req.Shipment.Container, "contenedor", "", "container")
	fs.StringVar(&req.Shipment.Notes, "observaciones", "", "notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *importFile == "" {
		return errors.New("save: -import is required")
	}

	data, err := os.ReadFile(*importFile)
	if err != nil {
		return err
	}
	var imported service.ImportResult
	if err := json.Unmarshal(data, &imported); err != nil {
		return fmt.Errorf("read %s: %w", *importFile, err)
	}
	fillFromImport(&req, &imported)

	if req.Shipment.Code == "" {
		res, err := a.generate(ctx, a.cfg.Codegen.BadgerPath)
		if err != nil {
			return err
		}
		req.Shipment.Code = res.Code
		a.logger.Info("shipment code issued", zap.String("code", res.Code), zap.String("strategy", string(res.Strategy)))
	}

	saved, err := a.client.SaveShipment(ctx, a.cred, &req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "id_carga=%d codigo=%s articulos=%d cajas=%d\n",
		saved.ShipmentID, saved.Code, saved.Articles, saved.Boxes)
	return nil
}

// fillFromImport 用导入结果补全请求
func fillFromImport(req *service.SaveShipmentRequest, imported *service.ImportResult) {
	req.Headers = imported.Headers
	req.Rows = imported.Rows
	req.Stats = imported.Stats
	if req.Client.Phone == "" {
		req.Client.Phone = imported.Prefill.Phone
	}
	if req.Shipment.Destination == "" {
		req.Shipment.Destination = imported.Prefill.Destination
	}
	if req.Shipment.SourceFile == "" {
		req.Shipment.SourceFile = imported.Prefill.SourceFile
	}
}

func (a *app) qrsCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qrs", flag.ContinueOnError)
	id := fs.Uint64("id", 0, "shipment id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("qrs: -id is required")
	}
	records, err := a.client.ListBoxes(ctx, a.cred, *id)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(a.stdout, "Sin códigos QR generados para esta carga")
		return nil
	}
	tw := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ITEM\tCAJA\tID_QR\tDESCRIPCION\tCODIGO")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%d/%d\t%d\t%s\t%s\n", r.ItemNumber, r.Number, r.Total, r.BoxID, r.Description, r.Code)
	}
	return tw.Flush()
}

func (a *app) qrCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("qr", flag.ContinueOnError)
	box := fs.Uint64("box", 0, "QR record id (id_qr)")
	width := fs.Int("width", 0, "image width in pixels")
	out := fs.String("out", "", "output file (default qr-<id>.png)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *box == 0 {
		return errors.New("qr: -box is required")
	}
	png, err := a.client.BoxImage(ctx, a.cred, *box, *width)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = fmt.Sprintf("qr-%d.png", *box)
	}
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}

func (a *app) pdfCmd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("pdf", flag.ContinueOnError)
	id := fs.Uint64("id", 0, "shipment id")
	compact := fs.Bool("compact", false, "3x4 grid layout")
	dir := fs.String("out", ".", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == 0 {
		return errors.New("pdf: -id is required")
	}
	name, data, err := a.client.ShipmentPDF(ctx, a.cred, *id, *compact)
	if err != nil {
		return err
	}
	path := filepath.Join(*dir, filepath.Base(name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, path)
	return nil
}
