package handlers

import (
	"net/http"
	"strconv"

	"github.com/Honahec/CloudBackend/services"
	"github.com/Honahec/CloudBackend/utils"

	"github.com/gin-gonic/gin"
)

type CreateFolderRequest struct {
	FolderName string `json:"folder_name" binding:"required"`
	Path       string `json:"path"`
}

type RenameFileRequest struct {
	Name string `json:"name" binding:"required"`
}

type MoveFileRequest struct {
	NewPath string `json:"new_path" binding:"required"`
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "无效的 ID")
		return 0, false
	}
	return uint(id), true
}

func ListFiles(c *gin.Context) {
	userID := c.GetUint("user_id")
	path := c.DefaultQuery("path", "/")

	files, err := getServices().File.ListFiles(c.Request.Context(), userID, path)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"files": files})
}

func CreateFolder(c *gin.Context) {
	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := c.GetUint("user_id")
	folder, err := getServices().File.CreateFolder(c.Request.Context(), userID, services.CreateFolderInput{
		FolderName: req.FolderName,
		Path:       req.Path,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, folder)
}

func RenameFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req RenameFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := c.GetUint("user_id")
	file, err := getServices().File.RenameFile(c.Request.Context(), userID, fileID, req.Name)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, file)
}

func MoveFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req MoveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := c.GetUint("user_id")
	if err := getServices().File.MoveFile(c.Request.Context(), userID, fileID, req.NewPath); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"status": "移动成功"})
}

func DeleteFile(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	if err := getServices().File.DeleteFile(c.Request.Context(), userID, fileID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"status": "删除成功"})
}

func GetDownloadURL(c *gin.Context) {
	fileID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	out, err := getServices().File.GetDownloadURL(c.Request.Context(), userID, fileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}
