package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/langchou/sparkreach/internal/catalog"
)

const defaultNearbyRadiusKm = 10

// ListChargers 充电桩列表
// GET /api/chargers?q=&type=all|compatible|Type 2|CCS|CHAdeMO
func (h *Handler) ListChargers(c *gin.Context) {
	q := catalog.Query{
		Search: c.Query("q"),
		Type:   c.DefaultQuery("type", catalog.TypeAll),
	}

	chargers, err := h.catalog.List(c.Request.Context(), q, principal(c).Profile())
	if err != nil {
		h.respondError(c, err, "Failed to list chargers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": chargers})
}

// SearchChargers 关键字搜索
func (h *Handler) SearchChargers(c *gin.Context) {
	chargers, err := h.catalog.Search(c.Request.Context(), c.Query("q"), principal(c).Profile())
	if err != nil {
		h.respondError(c, err, "Failed to search chargers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": chargers})
}

// NearbyChargers 附近的充电桩
// GET /api/chargers/nearby?lat=&lng=&radius=
func (h *Handler) NearbyChargers(c *gin.Context) {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		badRequest(c, "Invalid lat")
		return
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		badRequest(c, "Invalid lng")
		return
	}
	radius := float64(defaultNearbyRadiusKm)
	if v := c.Query("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			badRequest(c, "Invalid radius")
			return
		}
	}

	results, err := h.catalog.Nearby(c.Request.Context(), lat, lng, radius)
	if err != nil {
		h.respondError(c, err, "Failed to find nearby chargers")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}

// GetCharger 充电桩详情，支付前只返回大致位置
func (h *Handler) GetCharger(c *gin.Context) {
	charger, err := h.catalog.Get(c.Request.Context(), c.Param("id"), principal(c).Profile())
	if err != nil {
		h.respondError(c, err, "Failed to get charger")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": charger})
}

// QuoteCharger 预约页报价
// GET /api/chargers/:id/quote?date=&slot=&duration=
func (h *Handler) QuoteCharger(c *gin.Context) {
	duration := 0
	if v := c.Query("duration"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			badRequest(c, "Invalid duration")
			return
		}
		duration = d
	}

	quote, err := h.catalog.Quote(c.Request.Context(), c.Param("id"), c.Query("date"), c.Query("slot"), duration)
	if err != nil {
		h.respondError(c, err, "Failed to quote charger")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": quote})
}
