package main

import (
	"taskboard/internal/config"
	"taskboard/internal/server"

	"github.com/sirupsen/logrus"
)

// @title           Taskboard API
// @version         1.0
// @description     Collaborative kanban boards with realtime updates.

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @schemes http
func main() {
	cfg := config.Load()

	s, err := server.Init(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("server initialization failed")
	}

	s.Run()
}
