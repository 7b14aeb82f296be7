// Package codegen mints shipment codes. A remote sequence is preferred; when it is
// unavailable a local code PL-YYYYMMDD-RRR-TTTT is produced instead, optionally checked
// against a Ledger so two fallback codes are not handed out twice.
package codegen

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"time"

	"go.uber.org/zap"
)

// Strategy 编码来源
type Strategy string

const (
	StrategyRemote   Strategy = "remote"
	StrategyFallback Strategy = "fallback"
)

// DefaultPrefix 默认前缀
const DefaultPrefix = "PL"

var (
	// FallbackPattern matches codes built by Fallback with the default prefix.
	FallbackPattern = regexp.MustCompile(`^PL-\d{8}-\d{3}-\d{4}$`)
	remotePattern   = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{2,63}$`)

	ErrMalformedCode = errors.New("malformed shipment code")
)

// Source is the authoritative code issuer, e.g. a database sequence or the Backend API.
type Source interface {
	NextCode(ctx context.Context) (string, error)
}

// SourceFunc 函数适配
type SourceFunc func(ctx context.Context) (string, error)

func (f SourceFunc) NextCode(ctx context.Context) (string, error) { return f(ctx) }

// Ledger remembers fallback codes already handed out.
type Ledger interface {
	// Reserve returns false when code was reserved before.
	Reserve(ctx context.Context, code string) (bool, error)
}

// Result 生成结果
type Result struct {
	Code     string   `json:"codigo_carga"`
	Strategy Strategy `json:"origen"`
}

// Generator never fails: Generate always returns a syntactically valid code.
type Generator struct {
	source   Source
	ledger   Ledger
	logger   *zap.Logger
	prefix   string
	attempts int
	now      func() time.Time
	intn     func(n int) int
}

type Option func(*Generator)

func WithLedger(l Ledger) Option { return func(g *Generator) { g.ledger = l } }

func WithLogger(l *zap.Logger) Option { return func(g *Generator) { g.logger = l } }

func WithPrefix(p string) Option {
	return func(g *Generator) {
		if p != "" {
			g.prefix = p
		}
	}
}

// WithAttempts bounds how many fallback codes are tried against the ledger.
func WithAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.attempts = n
		}
	}
}

func WithClock(now func() time.Time) Option { return func(g *Generator) { g.now = now } }

func WithRand(intn func(n int) int) Option { return func(g *Generator) { g.intn = intn } }

// New source may be nil, in which case only the fallback path is used.
func New(source Source, opts ...Option) *Generator {
	g := &Generator{
		source:   source,
		logger:   zap.NewNop(),
		prefix:   DefaultPrefix,
		attempts: 5,
		now:      time.Now,
		intn:     rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Generator) Generate(ctx context.Context) Result {
	code, err := g.remote(ctx)
	if err == nil {
		return Result{Code: code, Strategy: StrategyRemote}
	}
	g.logger.Warn("remote code generation failed, using local fallback", zap.Error(err))
	return Result{Code: g.fallback(ctx), Strategy: StrategyFallback}
}

func (g *Generator) remote(ctx context.Context) (string, error) {
	if g.source == nil {
		return "", errors.New("no remote source configured")
	}
	code, err := g.source.NextCode(ctx)
	if err != nil {
		return "", err
	}
	if !ValidRemote(code) {
		return "", fmt.Errorf("%w: %q", ErrMalformedCode, code)
	}
	return code, nil
}

func (g *Generator) fallback(ctx context.Context) string {
	var code string
	for i := 0; i < g.attempts; i++ {
		code = Fallback(g.prefix, g.now(), g.intn(1000))
		if g.ledger == nil {
			return code
		}
		ok, err := g.ledger.Reserve(ctx, code)
		if err != nil {
			g.logger.Warn("code ledger unavailable", zap.String("code", code), zap.Error(err))
			return code
		}
		if ok {
			return code
		}
		g.logger.Debug("fallback code already reserved", zap.String("code", code), zap.Int("attempt", i+1))
	}
	g.logger.Warn("fallback attempts exhausted, returning unreserved code", zap.String("code", code))
	return code
}

// Fallback formats prefix-YYYYMMDD-RRR-TTTT where TTTT are the low four digits of the millisecond clock.
func Fallback(prefix string, t time.Time, r int) string {
	if r < 0 {
		r = -r
	}
	return fmt.Sprintf("%s-%s-%03d-%04d", prefix, t.Format("20060102"), r%1000, t.UnixMilli()%10000)
}

// ValidRemote reports whether a remote code is acceptable as a shipment code.
func ValidRemote(code string) bool {
	return remotePattern.MatchString(code)
}
