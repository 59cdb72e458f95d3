package app

import (
	"strings"

	"github.com/brightpath/enrolform-backend/internal/pkg/logger"
	"github.com/brightpath/enrolform-backend/internal/utils"
)

type Config struct {
	JWTSecretKey string
	ListenAddr   string
	AllowOrigins []string
	EventDriver  string
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	listenAddr := utils.GetEnv("LISTEN_ADDR", ":8080", log)
	origins := utils.GetEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000,http://localhost:5173", log)
	eventDriver := utils.GetEnv("EVENT_DRIVER", "log", log)
	return Config{
		JWTSecretKey: jwtSecretKey,
		ListenAddr:   listenAddr,
		AllowOrigins: strings.Split(origins, ","),
		EventDriver:  eventDriver,
	}
}
