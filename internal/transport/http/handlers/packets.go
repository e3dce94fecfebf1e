package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/domain"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/core/port"
	"github.com/HoneyCombLTD/prodigy-registration-client/internal/infra/storage"
)

// PacketHandler accepts registration packet uploads.
type PacketHandler struct {
	store  *storage.PacketStore
	audit  port.AuditPublisher
	logger *zap.Logger
}

// NewPacketHandler constructs PacketHandler.
func NewPacketHandler(store *storage.PacketStore, audit port.AuditPublisher, logger *zap.Logger) *PacketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PacketHandler{store: store, audit: audit, logger: logger}
}

// RegisterRoutes binds packet routes, applying optional middleware ahead of
// the upload handler.
func (h *PacketHandler) RegisterRoutes(r *gin.RouterGroup, uploadMiddlewares ...gin.HandlerFunc) {
	chain := append([]gin.HandlerFunc{}, uploadMiddlewares...)
	chain = append(chain, h.upload)
	r.POST("/packets", chain...)
}

func (h *PacketHandler) upload(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "packet storage unavailable"))
		return
	}

	file, err := c.FormFile("packet")
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "multipart field 'packet' is required"))
		return
	}

	src, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "failed to read uploaded packet"))
		return
	}
	defer src.Close()

	receipt, err := h.store.Store(file.Filename, src)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrPacketTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse(c, "packet exceeds the allowed size"))
		case errors.Is(err, storage.ErrNotAPacket):
			c.JSON(http.StatusUnsupportedMediaType, NewErrorResponse(c, "packet must be a zip archive"))
		case errors.Is(err, storage.ErrInvalidPacketName):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid packet file name"))
		default:
			h.logger.Error("packet store failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to store packet"))
		}
		return
	}

	h.auditUpload(c.Request.Context(), receipt)

	c.JSON(http.StatusCreated, PacketUploadResponse{
		FileName: receipt.FileName,
		Size:     receipt.Size,
		StoredAt: receipt.StoredAt,
	})
}

func (h *PacketHandler) auditUpload(ctx context.Context, receipt *storage.PacketReceipt) {
	if h.audit == nil {
		return
	}

	event := domain.AuditEvent{
		EventID:   uuid.NewString(),
		Kind:      domain.AuditPacketUpload,
		Component: domain.ComponentPacketUploader,
		ActorID:   receipt.FileName,
		Detail:    "stored registration packet",
		At:        time.Now().UTC(),
	}

	if err := h.audit.PublishAuditEvent(ctx, event); err != nil {
		h.logger.Warn("audit publish failed",
			zap.String("event_kind", string(event.Kind)),
			zap.Error(err),
		)
	}
}
