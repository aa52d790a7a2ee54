package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shouni/go-novel-comic-kit/internal/pipeline"
)

var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "登録済みキャラクターとロケーションの参照画像を生成するのだ",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cmd.Flags().Changed("input-file") && isStdin() {
			opts.InputFile = "-"
		}
		return pipeline.ExecuteAssets(cmd.Context(), loadConfig(), os.Stdin, cmd.OutOrStdout())
	},
}

func init() {
	assetsCmd.Flags().StringVarP(&opts.InputFile, "input-file", "f", "", "エンティティを抽出するチャプター本文のパスなのだ（省略時は既存のレジストリのみ）。")
}
