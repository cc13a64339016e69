package main

import (
	"agrirent/config"
	"agrirent/di"
	"agrirent/shared/logger"
)

func main() {
	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	http := di.InitializeService()
	http.Serve()
}
