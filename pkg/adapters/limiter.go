package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/shouni/go-novel-comic-kit/pkg/config"
)

const tracerName = "github.com/shouni/go-novel-comic-kit/pkg/adapters"

var tracer = otel.Tracer(tracerName)

// newLimiter は interval ごとに呼び出しを許可するリミッターを生成します。interval が0なら制限なしとして nil を返すのだ。
func newLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), config.DefaultRateBurst)
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// withTimeout は timeout が正の場合のみ期限付きのコンテキストを返します。
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
