package adapters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	imagedom "github.com/shouni/gemini-image-kit/pkg/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/shouni/go-novel-comic-kit/pkg/asset"
)

// RendererOptions は GeminiRenderer の挙動を調整するオプションです。
// Uploader が nil の場合、ローカルの参照画像は生成エンジンに渡せないため除外されます。
type RendererOptions struct {
	SystemPrompt   string
	RateInterval   time.Duration
	Timeout        time.Duration
	Uploader       FileUploader
	UploadCacheTTL time.Duration
}

// GeminiRenderer は gemini-image-kit の画像生成エンジンを Renderer として提供するのだ。
type GeminiRenderer struct {
	generator    ImageGenerator
	systemPrompt string
	timeout      time.Duration
	limiter      *rate.Limiter
	references   *referenceResolver
}

// NewGeminiRenderer は画像生成エンジンをラップした Renderer を生成します。
func NewGeminiRenderer(generator ImageGenerator, opts RendererOptions) (*GeminiRenderer, error) {
	if generator == nil {
		return nil, fmt.Errorf("image generator is nil: %w", ErrUnavailable)
	}
	return &GeminiRenderer{
		generator:    generator,
		systemPrompt: opts.SystemPrompt,
		timeout:      opts.Timeout,
		limiter:      newLimiter(opts.RateInterval),
		references:   newReferenceResolver(opts.Uploader, opts.UploadCacheTTL),
	}, nil
}

// Render は参照画像の有無に応じて単一パネル生成または複数参照生成を呼び分けます。
func (r *GeminiRenderer) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	ctx, span := tracer.Start(ctx, "adapters.GeminiRenderer.Render")
	defer span.End()
	span.SetAttributes(
		attribute.Int("render.references", len(req.References)),
		attribute.String("render.aspect_ratio", req.AspectRatio),
	)

	resp, err := r.render(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if resp == nil {
		return &RenderResult{}, nil
	}
	mimeType := resp.MimeType
	if mimeType == "" && len(resp.Data) > 0 {
		mimeType = asset.DetectMimeType(resp.Data)
	}
	slog.DebugContext(ctx, "画像生成が完了しました",
		slog.Int("bytes", len(resp.Data)),
		slog.String("mime_type", mimeType),
		slog.Int64("used_seed", resp.UsedSeed),
	)
	return &RenderResult{Data: resp.Data, MimeType: mimeType}, nil
}

func (r *GeminiRenderer) render(ctx context.Context, req RenderRequest) (*imagedom.ImageResponse, error) {
	var refs referenceSet
	if len(req.References) > 0 {
		refs = r.references.resolve(ctx, req.References)
		trace.SpanFromContext(ctx).SetAttributes(
			attribute.Int("render.references.sent", len(refs.URLs)),
			attribute.Int("render.references.skipped", refs.Skipped),
		)
	}

	if err := waitLimiter(ctx, r.limiter); err != nil {
		return nil, fmt.Errorf("レートリミッター待機中にエラーが発生しました: %w", err)
	}

	callCtx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var seed *int64
	if req.Seed != 0 {
		s := req.Seed
		seed = &s
	}

	if len(refs.URLs) == 0 {
		resp, err := r.generator.GenerateMangaPanel(callCtx, imagedom.ImageGenerationRequest{
			Prompt:         req.Prompt,
			SystemPrompt:   r.systemPrompt,
			NegativePrompt: req.NegativePrompt,
			AspectRatio:    req.AspectRatio,
			Seed:           seed,
		})
		if err != nil {
			return nil, fmt.Errorf("パネル画像の生成に失敗しました: %w", err)
		}
		return resp, nil
	}

	resp, err := r.generator.GenerateMangaPage(callCtx, imagedom.ImagePageRequest{
		Prompt:         req.Prompt,
		SystemPrompt:   r.systemPrompt,
		NegativePrompt: req.NegativePrompt,
		AspectRatio:    req.AspectRatio,
		ReferenceURLs:  refs.URLs,
		FileAPIURIs:    refs.FileURIs,
		Seed:           seed,
	})
	if err != nil {
		return nil, fmt.Errorf("参照画像付きの画像生成に失敗しました (refs: %d): %w", len(refs.URLs), err)
	}
	return resp, nil
}
