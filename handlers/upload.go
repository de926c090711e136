package handlers

import (
	"net/http"

	"github.com/Honahec/CloudBackend/services"
	"github.com/Honahec/CloudBackend/utils"

	"github.com/gin-gonic/gin"
)

type UploadTokenRequest struct {
	FileName    string `json:"file_name" binding:"required"`
	FileSize    int64  `json:"file_size" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

type CompleteUploadRequest struct {
	UploadID      string `json:"upload_id" binding:"required"`
	ObjectLocator string `json:"object_locator" binding:"required"`
	Path          string `json:"path"`
}

func GetUploadToken(c *gin.Context) {
	var req UploadTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := c.GetUint("user_id")
	out, err := getServices().Upload.IssueUploadToken(c.Request.Context(), userID, services.IssueUploadTokenInput{
		FileName:    req.FileName,
		FileSize:    req.FileSize,
		ContentType: req.ContentType,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

func CompleteUpload(c *gin.Context) {
	var req CompleteUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := c.GetUint("user_id")
	file, err := getServices().Upload.CompleteUpload(c.Request.Context(), userID, services.CompleteUploadInput{
		UploadID:      req.UploadID,
		ObjectLocator: req.ObjectLocator,
		Path:          req.Path,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}
