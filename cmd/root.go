package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-novel-comic-kit/internal/config"
	engine "github.com/shouni/go-novel-comic-kit/pkg/config"
)

// opts は全サブコマンドで共有される CLI オプションなのだ。
var opts config.ProcessOptions

var rootCmd = &cobra.Command{
	Use:               "novel-comic",
	Short:             "小説のチャプターからコミックのパネル画像を生成するのだ",
	SilenceUsage:      true,
	PersistentPreRunE: preRunAppE,
}

func init() {
	addAppFlags(rootCmd)
	rootCmd.AddCommand(processCmd, assetsCmd, inspectCmd)
}

// addAppFlags は、アプリケーション全般に適用されるグローバルフラグを定義するのだ。
func addAppFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	// --- 出力設定 ---
	flags.StringVarP(&opts.OutputDir, "output-dir", "o", "", "画像とレジストリを保存するディレクトリなのだ（未指定なら COMIC_OUTPUT_DIR）。")
	flags.StringVar(&opts.MetricsFile, "metrics-file", "", "実行メトリクスを Prometheus テキスト形式で書き出すパスなのだ。")
	flags.StringVar(&opts.MetricsPushURL, "metrics-push-url", "", "実行メトリクスを送信する Pushgateway の URL なのだ。")

	// --- AIモデル・挙動設定 ---
	flags.StringVar(&opts.AIModel, "model", "", "解析に使用する Gemini モデル名なのだ（未指定なら GEMINI_MODEL）。")
	flags.StringVar(&opts.ImageModel, "image-model", "", "画像生成に使用する Gemini モデル名なのだ（未指定なら IMAGE_GEMINI_MODEL）。")
	flags.BoolVar(&opts.Offline, "offline", false, "外部モデルを使わず、すべてフォールバックで実行するのだ。")
	flags.DurationVar(&opts.RequestTimeout, "request-timeout", engine.DefaultRequestTimeout, "外部モデル呼び出し1回あたりのタイムアウトなのだ。")
	flags.IntVar(&opts.Concurrency, "concurrency", engine.DefaultAssetConcurrency, "エンティティ画像を並列に生成する数なのだ。")

	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "デバッグログを出力するのだ。")
}

// preRunAppE は、コマンド実行前にロガーを設定するのだ。
func preRunAppE(_ *cobra.Command, _ []string) error {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// loadConfig は環境設定を読み込み、CLI オプションを合成するのだ。
func loadConfig() *config.Config {
	cfg := config.LoadConfig()
	cfg.Options = opts
	return cfg
}

// Execute は、アプリケーションのメインエントリポイントなのだ。
// main.go から呼び出されて、cobra のコマンドライン解析を開始するのだよ。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// isStdin は標準入力がパイプやリダイレクトかどうかを判定するのだ。
func isStdin() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
