// Package cargoapi is the HTTP client of the 888Cargo Backend API.
// Every call takes the bearer credential explicitly; the client keeps no session.
package cargoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/codegen"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/entity"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/label"
	"github.com/FiveCGroup/888Cargo-Movil-sub002/internal/cargo/service"
)

// Credential 调用方持有的 bearer token
type Credential string

var ErrNoCredential = errors.New("cargoapi: missing credential")

// APIError 后端返回的错误
type APIError struct {
	Status  int
	Code    int
	Message string
	Path    string
	Data    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d]: %s (path=%s)", e.Code, e.Message, e.Path)
}

// IsNotFound 资源不存在
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// FieldErrors 校验失败时的字段错误
func FieldErrors(err error) []service.FieldError {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != 42200 {
		return nil
	}
	var fields []service.FieldError
	json.Unmarshal(apiErr.Data, &fields)
	return fields
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Client Backend API 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient baseURL 形如 http://host:8080/api/v1
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// do 执行请求，2xx 时返回响应体
func (c *Client) do(ctx context.Context, cred Credential, method, path, contentType string, body io.Reader) ([]byte, http.Header, error) {
	if cred == "" {
		return nil, nil, ErrNoCredential
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Authorization", "Bearer "+string(cred))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode, Code: resp.StatusCode * 100, Message: http.StatusText(resp.StatusCode), Path: path}
		var env envelope
		if json.Unmarshal(data, &env) == nil && env.Code != 0 {
			apiErr.Code = env.Code
			apiErr.Message = env.Message
			apiErr.Data = env.Data
		}
		return nil, nil, apiErr
	}
	return data, resp.Header, nil
}

// doJSON 发送 JSON 请求并解出 data
func (c *Client) doJSON(ctx context.Context, cred Credential, method, path string, body, result interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(b)
	}
	data, _, err := c.do(ctx, cred, method, path, "application/json; charset=utf-8", reader)
	if err != nil {
		return err
	}
	return decode(data, path, result)
}

func decode(data []byte, path string, result interface{}) error {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if env.Code != 0 {
		return &APIError{Status: http.StatusOK, Code: env.Code, Message: env.Message, Path: path, Data: env.Data}
	}
	if result != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, result); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

func (c *Client) GenerateCode(ctx context.Context, cred Credential) (*codegen.Result, error) {
	var res codegen.Result
	if err := c.doJSON(ctx, cred, http.MethodGet, "/cargas/generar-codigo", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// CodeSource adapts the code endpoint to a codegen.Source bound to cred.
func (c *Client) CodeSource(cred Credential) codegen.Source {
	return codegen.SourceFunc(func(ctx context.Context) (string, error) {
		res, err := c.GenerateCode(ctx, cred)
		if err != nil {
			return "", err
		}
		return res.Code, nil
	})
}

// ImportWorkbook 上传装箱单并返回解析结果
func (c *Client) ImportWorkbook(ctx context.Context, cred Credential, filename string, r io.Reader) (*service.ImportResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filepath.Base(filename),
	}))
	header.Set("Content-Type", spreadsheetType(filename))
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("create form part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy workbook: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	const path = "/cargas/procesar-excel"
	data, _, err := c.do(ctx, cred, http.MethodPost, path, mw.FormDataContentType(), &body)
	if err != nil {
		return nil, err
	}
	var res service.ImportResult
	if err := decode(data, path, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func spreadsheetType(filename string) string {
	if strings.EqualFold(filepath.Ext(filename), ".xls") {
		return "application/vnd.ms-excel"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (c *Client) SaveShipment(ctx context.Context, cred Credential, req *service.SaveShipmentRequest) (*service.SaveResult, error) {
	var res service.SaveResult
	if err := c.doJSON(ctx, cred, http.MethodPost, "/cargas/guardar-packing-list", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetShipment(ctx context.Context, cred Credential, id uint64) (*entity.Shipment, error) {
	var s entity.Shipment
	if err := c.doJSON(ctx, cred, http.MethodGet, fmt.Sprintf("/cargas/%d", id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListBoxes 货运的二维码记录，已按展示顺序编号
func (c *Client) ListBoxes(ctx context.Context, cred Credential, id uint64) ([]label.DisplayRecord, error) {
	var res struct {
		Items []label.DisplayRecord `json:"items"`
	}
	if err := c.doJSON(ctx, cred, http.MethodGet, fmt.Sprintf("/cargas/%d/qrs", id), nil, &res); err != nil {
		return nil, err
	}
	if res.Items == nil {
		res.Items = []label.DisplayRecord{}
	}
	return res.Items, nil
}

// BoxImage width 为 0 时使用服务端默认尺寸
func (c *Client) BoxImage(ctx context.Context, cred Credential, boxID uint64, width int) ([]byte, error) {
	path := fmt.Sprintf("/qr/image/%d", boxID)
	if width > 0 {
		path += "?width=" + fmt.Sprint(width)
	}
	data, _, err := c.do(ctx, cred, http.MethodGet, path, "", nil)
	return data, err
}

// ShipmentPDF 返回文件名和 PDF 内容
func (c *Client) ShipmentPDF(ctx context.Context, cred Credential, id uint64, compact bool) (string, []byte, error) {
	q := url.Values{}
	if compact {
		q.Set("compact", "true")
	}
	path := fmt.Sprintf("/cargas/%d/pdf", id)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	data, header, err := c.do(ctx, cred, http.MethodGet, path, "", nil)
	if err != nil {
		return "", nil, err
	}
	filename := label.Filename(fmt.Sprint(id), compact)
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return filename, data, nil
}
