package main

import (
	"os"

	_ "tomcat-devloop/cmd"
	"tomcat-devloop/cmd/root"
	"tomcat-devloop/internal/config"
	"tomcat-devloop/internal/env"
	"tomcat-devloop/internal/logger"
)

func main() {
	// 守护进程模式下日志同时输出到控制台
	env.Daemon = len(os.Args) > 1 && os.Args[1] == "serve"
	logger.InitLogger(&config.Config.Log, env.Daemon)
	defer logger.Sync()

	if err := root.RootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
