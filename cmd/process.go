package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-novel-comic-kit/internal/pipeline"
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "チャプターを解析し、パネル画像を順に生成するのだ",
	Long:  "チャプター本文からエンティティを抽出し、シーン分割とパネル計画を経て、パネル画像を生成します。生成したパスは標準出力に1行ずつ書き出すのだ。",
	RunE:  processCommand,
}

func init() {
	processCmd.Flags().StringVarP(&opts.InputFile, "input-file", "f", "", "チャプター本文のパス（'-'で標準入力なのだ）。")
	processCmd.Flags().Float64Var(&opts.Threshold, "threshold", 0, "冗長度スコアの閾値なのだ（0 なら PANEL_SIMILARITY_THRESHOLD）。")
	processCmd.Flags().IntVar(&opts.MinPanels, "min-panels", 0, "1シーンあたりの最小パネル数なのだ。")
	processCmd.Flags().IntVar(&opts.MaxPanels, "max-panels", 0, "1シーンあたりの最大パネル数なのだ。")
	processCmd.Flags().StringVar(&opts.ResultFile, "result-file", "", "実行結果（シーン・パネル・アドバイス）を JSON で保存するパスなのだ。")
}

func processCommand(cmd *cobra.Command, _ []string) error {
	if opts.InputFile == "" && !isStdin() {
		return fmt.Errorf("チャプター本文（--input-file または標準入力）を指定してほしいのだ")
	}
	return pipeline.ExecuteProcess(cmd.Context(), loadConfig(), os.Stdin, cmd.OutOrStdout())
}
