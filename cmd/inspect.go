package cmd

import (
	"github.com/spf13/cobra"

	"github.com/shouni/go-novel-comic-kit/internal/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "保存済みのエンティティレジストリを JSON で表示するのだ",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return pipeline.ExecuteInspect(cmd.Context(), loadConfig(), cmd.OutOrStdout())
	},
}
