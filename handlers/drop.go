package handlers

import (
	"net/http"

	"github.com/Honahec/CloudBackend/services"
	"github.com/Honahec/CloudBackend/utils"

	"github.com/gin-gonic/gin"
)

type CreateDropRequest struct {
	FileIDs          []uint `json:"file_ids" binding:"required"`
	ExpireDays       int    `json:"expire_days" binding:"required"`
	Code             string `json:"code" binding:"required"`
	RequireLogin     bool   `json:"require_login"`
	MaxDownloadCount int    `json:"max_download_count" binding:"required"`
	Password         string `json:"password"`
}

type ResolveDropRequest struct {
	Password string `json:"password"`
}

type DropFileDownloadRequest struct {
	Password string `json:"password"`
	FileID   uint   `json:"file_id" binding:"required"`
}

// dropViewer 从可选登录中间件的标记还原访问主体。
func dropViewer(c *gin.Context) services.Viewer {
	return services.Viewer{
		UserID:        c.GetUint("user_id"),
		Authenticated: c.GetBool("authenticated"),
	}
}

func CreateDrop(c *gin.Context) {
	var req CreateDropRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	userID := c.GetUint("user_id")
	drop, err := getServices().Drop.CreateDrop(c.Request.Context(), userID, services.CreateDropInput{
		FileIDs:          req.FileIDs,
		ExpireDays:       req.ExpireDays,
		Code:             req.Code,
		RequireLogin:     req.RequireLogin,
		MaxDownloadCount: req.MaxDownloadCount,
		Password:         req.Password,
	})
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, drop)
}

func ListDrops(c *gin.Context) {
	userID := c.GetUint("user_id")
	drops, err := getServices().Drop.ListDrops(c.Request.Context(), userID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"drops": drops})
}

func ResolveDrop(c *gin.Context) {
	var req ResolveDropRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	out, err := getServices().Drop.ResolveDrop(c.Request.Context(), c.Param("code"), req.Password, dropViewer(c))
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, out)
}

func GetDropFileDownloadURL(c *gin.Context) {
	var req DropFileDownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	url, err := getServices().Drop.GetDropFileDownloadURL(c.Request.Context(), c.Param("code"), req.Password, dropViewer(c), req.FileID)
	if respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"url": url})
}

func DeleteDrop(c *gin.Context) {
	dropID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID := c.GetUint("user_id")
	if err := getServices().Drop.DeleteDrop(c.Request.Context(), userID, dropID); respondServiceError(c, err) {
		return
	}
	utils.Success(c, gin.H{"status": "分享已删除"})
}
