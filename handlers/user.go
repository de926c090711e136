package handlers

import (
	"github.com/Honahec/CloudBackend/utils"

	"github.com/gin-gonic/gin"
)

func GetStorageInfo(c *gin.Context) {
	userID := c.GetUint("user_id")
	info, err := getServices().User.GetStorageInfo(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, info)
}

func RecalculateStorage(c *gin.Context) {
	userID := c.GetUint("user_id")
	info, err := getServices().User.RecalculateStorage(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, info)
}
