package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/langchou/sparkreach/internal/service"
)

// 上传大小限制
const (
	maxPhotoBytes = 10 << 20
	maxVideoBytes = 100 << 20
)

// RegisterHost 提交上架申请
func (h *Handler) RegisterHost(c *gin.Context) {
	var req service.RegisterHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid host registration")
		return
	}

	host, err := h.hosts.Register(c.Request.Context(), req, principal(c).Profile())
	if err != nil {
		h.respondError(c, err, "Failed to register host")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": host})
}

// MyListings 当前用户提交的上架申请
func (h *Handler) MyListings(c *gin.Context) {
	hosts, err := h.hosts.MyListings(c.Request.Context(), principal(c).Profile().Email)
	if err != nil {
		h.respondError(c, err, "Failed to list host applications")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hosts})
}

// UploadPhoto 上传充电桩照片（表单字段 photo）
func (h *Handler) UploadPhoto(c *gin.Context) {
	h.upload(c, service.UploadPhoto, maxPhotoBytes)
}

// UploadVideo 上传充电桩视频（表单字段 video）
func (h *Handler) UploadVideo(c *gin.Context) {
	h.upload(c, service.UploadVideo, maxVideoBytes)
}

func (h *Handler) upload(c *gin.Context, kind string, limit int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile(kind)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded", "field": kind})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.respondError(c, err, "Failed to read upload")
		return
	}
	defer f.Close()

	url, err := h.hosts.SaveUpload(kind, header.Filename, f)
	if err != nil {
		h.respondError(c, err, "Failed to save upload")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"url": url}})
}
