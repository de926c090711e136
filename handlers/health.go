package handlers

import (
	"github.com/Honahec/CloudBackend/utils"

	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "cloudbackend",
	})
}
