package main

import (
	"seoforge/cmd/handlers"
	"seoforge/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
