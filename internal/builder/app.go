package builder

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/shouni/go-novel-comic-kit/internal/config"
	engine "github.com/shouni/go-novel-comic-kit/pkg/config"
	"github.com/shouni/go-novel-comic-kit/pkg/pipeline"
)

// AppContext は、アプリケーション実行に必要な共通コンテキストを保持する
// これを各実行関数に渡すことで、依存関係の注入を簡素化します。
type AppContext struct {
	Config   *config.Config        // Configは、環境変数とCLIフラグから読み込まれた設定です。
	Options  config.ProcessOptions // Optionsは、コマンドラインから渡された実行時の設定です。
	Engine   engine.Config         // Engineは、パイプラインに渡す正規化済みの設定です。
	Pipeline *pipeline.Pipeline    // Pipelineは、チャプター処理の全工程を担います。
	Metrics  *pipeline.Metrics     // Metricsは、フォールバックや生成枚数を計上します。
	Registry *prometheus.Registry  // Registryは、メトリクスのエクスポートに使います。
	Offline  bool                  // Offlineは、外部モデルを使わずに実行しているかどうかです。
}

// NewAppContext は AppContext の新しいインスタンスを生成する
func NewAppContext(
	cfg *config.Config,
	engineCfg engine.Config,
	p *pipeline.Pipeline,
	metrics *pipeline.Metrics,
	reg *prometheus.Registry,
	offline bool,
) AppContext {
	return AppContext{
		Config:   cfg,
		Options:  cfg.Options,
		Engine:   engineCfg,
		Pipeline: p,
		Metrics:  metrics,
		Registry: reg,
		Offline:  offline,
	}
}
