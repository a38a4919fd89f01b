// Package main 提供离线知识库入库命令。
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mental-care-go/internal/app"
	"mental-care-go/internal/config"
	"mental-care-go/pkg/log"

	"github.com/spf13/cobra"
)

var (
	configPath string   // 配置文件路径
	files      []string // 覆盖 ingestion.files
)

var rootCmd = &cobra.Command{
	Use:   "ingest",
	Short: "把 DSM-5 文档切分、摘要、向量化后写入知识库索引",
	Long: `读取 ingestion.files 中列出的文档，依次执行切分、摘要、向量化并写入向量索引。
已完成的步骤缓存在 ingestion.cache_file 中，重复运行不会重复调用模型。

示例:
  ingest                               # 使用配置中的文件列表
  ingest -f docs/dsm5.pdf -f notes.md  # 指定文件
  ingest -c configs/prod.yaml`,
	SilenceUsage: true,
	RunE:         runIngest,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "./configs/config.yaml", "配置文件路径")
	rootCmd.Flags().StringSliceVarP(&files, "file", "f", nil, "要入库的文件，可重复指定")
}

func runIngest(cmd *cobra.Command, _ []string) error {
	config.Init(configPath)
	cfg := config.Conf
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync()

	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("llm.api_key 未配置")
	}
	paths := cfg.Ingestion.Files
	if len(files) > 0 {
		paths = files
	}
	if len(paths) == 0 {
		return fmt.Errorf("没有需要入库的文件")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := app.NewVectorIndex(cfg)
	if err != nil {
		return err
	}
	processor, err := app.NewProcessor(cfg, index, nil)
	if err != nil {
		return err
	}
	chunks, err := processor.RunFiles(ctx, paths)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "入库完成: %d 个文件, %d 个分块\n", len(paths), len(chunks))
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
