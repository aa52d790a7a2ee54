package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/shouni/go-novel-comic-kit/internal/builder"
	"github.com/shouni/go-novel-comic-kit/internal/config"
	"github.com/shouni/go-novel-comic-kit/pkg/asset"
	"github.com/shouni/go-novel-comic-kit/pkg/domain"
	"github.com/shouni/go-novel-comic-kit/pkg/registry"
)

const metricsJobName = "novel_comic_kit"

// ExecuteProcess は入力されたチャプターを処理し、生成したパネル画像のパスを out に書き出すのだ。
func ExecuteProcess(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	text, err := readChapter(cfg.Options.InputFile, in)
	if err != nil {
		return err
	}

	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "チャプター処理パイプラインを起動します",
		slog.String("text_model", appCtx.Engine.GeminiModel),
		slog.String("image_model", appCtx.Engine.ImageModel),
		slog.String("output_dir", appCtx.Engine.OutputDir),
		slog.Bool("offline", appCtx.Offline),
	)

	res, err := appCtx.Pipeline.Run(ctx, text)
	if err != nil {
		return fmt.Errorf("パイプライン実行中にエラーが発生しました: %w", err)
	}

	for _, path := range res.Paths {
		fmt.Fprintln(out, path)
	}
	if cfg.Options.ResultFile != "" {
		if err := asset.WriteJSONAtomic(cfg.Options.ResultFile, res); err != nil {
			return fmt.Errorf("実行結果の保存に失敗しました: %w", err)
		}
	}

	exportMetrics(ctx, appCtx)
	slog.InfoContext(ctx, "すべての生成工程が完了しました", slog.String("run_id", res.RunID), slog.Int("panels", len(res.Paths)))
	return nil
}

// ExecuteAssets は登録済みのすべてのエンティティ画像を事前に生成するのだ。
// 入力が指定された場合は、先にエンティティ抽出を行います。
func ExecuteAssets(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	appCtx, err := builder.BuildAppContext(ctx, cfg)
	if err != nil {
		return err
	}

	reg := appCtx.Pipeline.Registry()
	if err := asset.EnsureLayout(appCtx.Engine.OutputDir); err != nil {
		return err
	}
	if err := reg.Load(); err != nil {
		return fmt.Errorf("レジストリの読み込みに失敗しました: %w", err)
	}

	if cfg.Options.InputFile != "" {
		text, err := readChapter(cfg.Options.InputFile, in)
		if err != nil {
			return err
		}
		reg.ExtractEntities(ctx, text)
	}
	if len(reg.Characters()) == 0 && len(reg.Locations()) == 0 {
		return fmt.Errorf("登録済みのエンティティがありません。--input-file でチャプターを指定してください")
	}

	for _, a := range appCtx.Pipeline.ResolveAssets(ctx) {
		fmt.Fprintf(out, "%s\t%s\t%s\n", a.Kind, a.Name, a.Path)
	}
	if err := reg.Persist(); err != nil {
		return err
	}

	exportMetrics(ctx, appCtx)
	return nil
}

// registrySnapshot は inspect コマンドの出力形式です。
type registrySnapshot struct {
	Characters []domain.Character `json:"characters"`
	Locations  []domain.Location  `json:"locations"`
	Panels     []string           `json:"panels"`
}

// ExecuteInspect は保存済みのレジストリを JSON として out に書き出すのだ。外部モデルは使いません。
func ExecuteInspect(_ context.Context, cfg *config.Config, out io.Writer) error {
	engineCfg := cfg.EngineConfig()
	reg := registry.New(engineCfg.OutputDir, engineCfg.AspectRatio, registry.Dependencies{})
	if err := reg.Load(); err != nil {
		return fmt.Errorf("レジストリの読み込みに失敗しました: %w", err)
	}

	panels, err := listPanels(engineCfg.OutputDir)
	if err != nil {
		return err
	}

	content, err := json.MarshalIndent(registrySnapshot{
		Characters: reg.Characters(),
		Locations:  reg.Locations(),
		Panels:     panels,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("JSONのシリアライズに失敗しました: %w", err)
	}
	_, err = fmt.Fprintln(out, string(content))
	return err
}

// listPanels は出力ディレクトリに保存済みのパネル画像 (panel_N.png) を列挙します。
func listPanels(outputDir string) ([]string, error) {
	dir := filepath.Join(outputDir, asset.PanelsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("パネルディレクトリの読み込みに失敗しました: %w", err)
	}

	panels := []string{}
	for _, e := range entries {
		if !e.IsDir() && asset.PanelFileRegex.MatchString(e.Name()) {
			panels = append(panels, filepath.Join(dir, e.Name()))
		}
	}
	return panels, nil
}

// readChapter は入力ファイル（'-' または空なら標準入力）からチャプター本文を読み込みます。
func readChapter(path string, in io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "" || path == "-" {
		data, err = io.ReadAll(in)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("チャプターの読み込みに失敗しました: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("チャプター本文が空です")
	}
	return text, nil
}

// exportMetrics はメトリクスをテキストファイルまたは Pushgateway に書き出します。失敗は警告に留めるのだ。
func exportMetrics(ctx context.Context, appCtx *builder.AppContext) {
	opts := appCtx.Options
	if opts.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.MetricsFile, appCtx.Registry); err != nil {
			slog.WarnContext(ctx, "メトリクスファイルの書き出しに失敗しました", slog.String("path", opts.MetricsFile), slog.Any("error", err))
		}
	}
	if opts.MetricsPushURL != "" {
		if err := push.New(opts.MetricsPushURL, metricsJobName).Gatherer(appCtx.Registry).Push(); err != nil {
			slog.WarnContext(ctx, "メトリクスの送信に失敗しました", slog.String("url", opts.MetricsPushURL), slog.Any("error", err))
		}
	}
}
