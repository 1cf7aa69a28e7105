package main

import (
	"os"

	"gamelibrary/internal/app"
)

//go:generate swag init -d ../../ -g cmd/api/main.go -o ../../api/swagger --parseInternal

// @title           Game Library API
// @version         1.0
// @description     Track a personal game library, review games and manage roles and permissions.
// @host            localhost:3000
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := app.Execute(); err != nil {
		os.Exit(1)
	}
}
