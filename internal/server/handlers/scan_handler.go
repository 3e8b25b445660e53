package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScanRequest is the payload a networked scanner gun posts to the bridge.
type ScanRequest struct {
	Code string `json:"code" binding:"required"`
}

// ScanHandler feeds HTTP-delivered scans into the same bounded queue the
// console feeds, so processing stays strictly sequential.
type ScanHandler struct {
	queue  chan<- string
	logger *zap.Logger
}

// NewScanHandler constructs the HTTP bridge adapter.
func NewScanHandler(queue chan<- string, logger *zap.Logger) *ScanHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanHandler{queue: queue, logger: logger}
}

// Submit enqueues one scan line. The bridge never processes scans itself; a
// full queue is reported rather than waited on.
func (h *ScanHandler) Submit(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid scan payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	select {
	case h.queue <- req.Code:
		c.Status(http.StatusAccepted)
	default:
		h.logger.Warn("scan queue full, rejecting bridge scan")
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "scan queue full"})
	}
}
