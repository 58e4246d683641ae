package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/dukahub/duka-api/internal/server"
)

func main() {
	server.InitializeHandlers()

	r := gin.Default()
	server.InitializeRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	log.Printf("Server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
