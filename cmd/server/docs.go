package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           CS Inventory API
// @version         0.1.0
// @description     Skin trade ledger, weighted-average inventory and investment pool statistics.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
