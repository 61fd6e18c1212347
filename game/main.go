package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"qwirkle/common/config"
	"qwirkle/common/log"
	"qwirkle/common/metrics"
	"qwirkle/game/app"
)

var (
	configFile string
	logLevel   string
	identifier string
)

var rootCmd = &cobra.Command{
	Use:   "game",
	Short: "game 对局服务",
	Long:  `game 对局服务，承载 Qwirkle 房间的规则引擎与回合状态机`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// identifier 同时作为节点 ID 与 NATS topic
		if err := os.Setenv("NODE_ID", identifier); err != nil {
			return err
		}
		if err := config.Load(configFile); err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}
		level := logLevel
		if !cmd.Flags().Changed("logLevel") && config.GameNodeConfig.LogConf.Level != "" {
			level = config.GameNodeConfig.LogConf.Level
		}
		log.InitLog(identifier, level)
		log.Info("配置文件: %+v", config.GameNodeConfig)

		if port := config.GameNodeConfig.MetricPort; port > 0 {
			go func() {
				log.Info("启动监控..., URL: http://localhost:%d/debug/statsviz/", port)
				if err := metrics.Serve(fmt.Sprintf("0.0.0.0:%d", port)); err != nil {
					log.Error("监控服务退出: %v", err)
				}
			}()
		}

		return app.Run(context.Background())
	},
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "resource", config.DefaultConfigFile, "resource file")
	rootCmd.Flags().StringVar(&logLevel, "logLevel", "info", "log level: debug, info, warn, error")
	rootCmd.Flags().StringVar(&identifier, "identifier", "", "subscribed topic and identifier of server required")
	_ = rootCmd.MarkFlagRequired("identifier")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error("发生异常: %v", err)
		os.Exit(1)
	}
}
