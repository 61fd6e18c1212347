package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qwirkle/common/config"
	"qwirkle/common/log"
	"qwirkle/core/container"
)

const shutdownTimeout = 5 * time.Second

// Run 阻塞运行直到收到退出信号或 ctx 结束
func Run(ctx context.Context) error {
	conf := config.GameNodeConfig
	gameContainer, err := container.NewGameContainer(conf)
	if err != nil {
		return fmt.Errorf("game 容器初始化失败: %w", err)
	}
	defer func() {
		if err := gameContainer.Close(); err != nil {
			log.Error("关闭 game 容器失败: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		if err := gameContainer.GameWorker.Start(ctx, conf.NatsConfig.URL, conf.EtcdConf); err != nil {
			errCh <- fmt.Errorf("worker 启动失败: %w", err)
		}
	}()
	if gameContainer.OpsServer != nil {
		go func() {
			log.Info("启动 ops 接口..., URL: http://localhost:%d/ops/rooms", gameContainer.OpsServer.GetPort())
			if err := gameContainer.OpsServer.Start(); err != nil {
				errCh <- fmt.Errorf("ops 服务异常退出: %w", err)
			}
		}()
	}

	stop := func() {
		log.Info("正在关闭 game 服务...")
		cancel()

		done := make(chan struct{})
		go func() {
			if err := gameContainer.Close(); err != nil {
				log.Warn("关闭 game 容器失败: %v", err)
			}
			close(done)
		}()

		select {
		case <-done:
			log.Info("game 服务已关闭")
		case <-time.After(shutdownTimeout):
			log.Warn("关闭 game 服务超时（%v），defer 会确保资源最终被释放", shutdownTimeout)
		}
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGHUP)
	defer signal.Stop(c)
	for {
		select {
		case <-ctx.Done():
			stop()
			return nil
		case err := <-errCh:
			stop()
			return err
		case s := <-c:
			switch s {
			case syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT:
				stop()
				log.Info("中断信号，服务停止")
				return nil
			case syscall.SIGHUP:
				stop()
				log.Info("挂起信号，服务停止")
				return nil
			default:
				return nil
			}
		}
	}
}
