package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shouni/go-gemini-client/pkg/gemini"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	defaultResponseCacheTTL     = 30 * time.Minute
	defaultResponseCacheCleanup = 10 * time.Minute
)

// AnalyzerOptions は GeminiAnalyzer の挙動を調整するオプションです。
type AnalyzerOptions struct {
	Model        string
	RateInterval time.Duration
	Timeout      time.Duration
	CacheTTL     time.Duration // 0 の場合はデフォルト、負の場合はキャッシュ無効
}

type generateFunc func(ctx context.Context, prompt string) (string, error)

// GeminiAnalyzer は Gemini のテキスト生成を Analyzer として提供するのだ。
// 同一のモデルとプロンプトに対する応答はメモ化されます。
type GeminiAnalyzer struct {
	generate generateFunc
	model    string
	timeout  time.Duration
	limiter  *rate.Limiter
	cache    *cache.Cache
}

// NewGeminiAnalyzer は Gemini クライアントをラップした Analyzer を生成します。
func NewGeminiAnalyzer(client gemini.GenerativeModel, opts AnalyzerOptions) (*GeminiAnalyzer, error) {
	if client == nil {
		return nil, fmt.Errorf("gemini client is nil: %w", ErrUnavailable)
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("解析用のモデル名が指定されていません")
	}
	model := opts.Model
	generate := func(ctx context.Context, prompt string) (string, error) {
		resp, err := client.GenerateContent(ctx, prompt, model)
		if err != nil {
			return "", err
		}
		return resp.Text, nil
	}
	return newGeminiAnalyzer(generate, opts), nil
}

func newGeminiAnalyzer(generate generateFunc, opts AnalyzerOptions) *GeminiAnalyzer {
	a := &GeminiAnalyzer{
		generate: generate,
		model:    opts.Model,
		timeout:  opts.Timeout,
		limiter:  newLimiter(opts.RateInterval),
	}
	if opts.CacheTTL >= 0 {
		ttl := opts.CacheTTL
		if ttl == 0 {
			ttl = defaultResponseCacheTTL
		}
		a.cache = cache.New(ttl, defaultResponseCacheCleanup)
	}
	return a
}

// Analyze はプロンプトをモデルに送信し、応答テキストを返します。
func (a *GeminiAnalyzer) Analyze(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "adapters.GeminiAnalyzer.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("gemini.model", a.model), attribute.Int("prompt.length", len(prompt)))

	key := a.cacheKey(prompt)
	if a.cache != nil {
		if v, found := a.cache.Get(key); found {
			if text, ok := v.(string); ok {
				span.SetAttributes(attribute.Bool("cache.hit", true))
				return text, nil
			}
		}
	}

	text, err := a.call(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	if a.cache != nil {
		a.cache.Set(key, text, cache.DefaultExpiration)
	}
	return text, nil
}

func (a *GeminiAnalyzer) call(ctx context.Context, prompt string) (string, error) {
	if err := waitLimiter(ctx, a.limiter); err != nil {
		return "", fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
	}

	callCtx, cancel := withTimeout(ctx, a.timeout)
	defer cancel()

	start := time.Now()
	text, err := a.generate(callCtx, prompt)
	if err != nil {
		return "", fmt.Errorf("テキスト生成に失敗しました (model: %s): %w", a.model, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	slog.DebugContext(ctx, "テキスト生成が完了しました",
		slog.String("model", a.model),
		slog.Duration("elapsed", time.Since(start)),
		slog.Int("response_length", len(text)),
	)
	return text, nil
}

// cacheKey はモデル名とプロンプトから決定論的なキーを生成します。
func (a *GeminiAnalyzer) cacheKey(prompt string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(a.model+"\x00"+prompt)).String()
}
