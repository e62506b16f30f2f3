// Package transport provides methods for processing requests from endpoints
package transport

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/UnendingLoop/WebPUploader/internal/imageproc"
	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/UnendingLoop/WebPUploader/internal/mwlogger"
	"github.com/disintegration/imaging"
	"github.com/wb-go/wbf/ginext"

	_ "golang.org/x/image/webp" // регистрируем webp для imaging.Decode
)

type UploadHandler struct {
	service  UploadService
	hub      SessionHub
	creds    model.Credentials
	defaults model.UploadParams
}

type UploadService interface {
	Process(ctx context.Context, req *model.BatchRequest) (*model.BatchAck, error)
}

// SessionHub - подписка клиента на нотификации своей сессии
type SessionHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error
}

// NewUploadHandler - creds держит сервер, клиенту они не нужны
func NewUploadHandler(svc UploadService, hub SessionHub, creds model.Credentials, defaults model.UploadParams) *UploadHandler {
	return &UploadHandler{
		service:  svc,
		hub:      hub,
		creds:    creds,
		defaults: defaults,
	}
}

func (h UploadHandler) SimplePinger(ctx *ginext.Context) {
	ctx.JSON(200, map[string]string{"message": "pong"})
}

// UploadImages - multipart-форма: файлы в поле images + параметры качества
func (h UploadHandler) UploadImages(ctx *ginext.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(400, map[string]string{"error": "multipart form is required"})
		return
	}
	files := form.File["images"]
	if len(files) == 0 {
		ctx.JSON(400, map[string]string{"error": model.ErrEmptyBatch.Error()})
		return
	}

	params, err := h.formParams(ctx)
	if err != nil {
		ctx.JSON(400, map[string]string{"error": err.Error()})
		return
	}

	images := make([]model.RawImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			ctx.JSON(400, map[string]string{"error": "failed to read file " + fh.Filename})
			return
		}
		img, err := imaging.Decode(f, imaging.AutoOrientation(true))
		closeFileFlow(f)
		if err != nil {
			ctx.JSON(400, map[string]string{"error": model.ErrUnsupportedFormat.Error() + ": " + fh.Filename})
			return
		}
		images = append(images, imageproc.FromImage(img))
	}

	h.process(ctx, images, params)
}

type tensorImage struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Channels int       `json:"channels"`
	Data     []float32 `json:"data"`
}

type tensorRequest struct {
	Images       []tensorImage `json:"images"`
	Quality      int           `json:"quality"`
	ThumbQuality int           `json:"thumb_quality"`
	ThumbSize    int           `json:"thumb_size"`
	ClientID     string        `json:"client_id"`
}

// UploadTensors - сырые float-тензоры в JSON, значения в [0,1]
func (h UploadHandler) UploadTensors(ctx *ginext.Context) {
	var req tensorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(400, map[string]string{"error": "failed to parse request body"})
		return
	}

	images := make([]model.RawImage, 0, len(req.Images))
	for _, t := range req.Images {
		images = append(images, model.RawImage{
			Width:    t.Width,
			Height:   t.Height,
			Channels: t.Channels,
			Float:    t.Data,
		})
	}

	params := h.withDefaults(model.UploadParams{
		Quality:      req.Quality,
		ThumbQuality: req.ThumbQuality,
		ThumbSize:    req.ThumbSize,
		SessionID:    req.ClientID,
	})

	h.process(ctx, images, params)
}

// Subscribe - websocket для нотификаций по client_id
func (h UploadHandler) Subscribe(ctx *ginext.Context) {
	sessionID := strings.TrimSpace(ctx.Query("client_id"))
	if sessionID == "" {
		ctx.JSON(400, map[string]string{"error": "client_id is required"})
		return
	}

	if err := h.hub.ServeWS(ctx.Writer, ctx.Request, sessionID); err != nil {
		logger := mwlogger.LoggerFromContext(ctx.Request.Context())
		logger.Warn().Err(err).Str("session_id", sessionID).Msg("websocket session ended with error")
	}
}

func (h UploadHandler) process(ctx *ginext.Context, images []model.RawImage, params model.UploadParams) {
	if len(images) == 0 {
		ctx.JSON(400, map[string]string{"error": model.ErrEmptyBatch.Error()})
		return
	}

	req := model.BatchRequest{
		Images:      images,
		Params:      params,
		Credentials: h.creds,
	}

	ack, err := h.service.Process(ctx.Request.Context(), &req)
	if err != nil {
		ctx.JSON(errorCodeDefiner(err), map[string]string{"error": err.Error()})
		return
	}

	ctx.JSON(200, ack)
}

func (h UploadHandler) formParams(ctx *ginext.Context) (model.UploadParams, error) {
	var p model.UploadParams
	var err error

	if p.Quality, err = formInt(ctx, "quality"); err != nil {
		return p, err
	}
	if p.ThumbQuality, err = formInt(ctx, "thumb_quality"); err != nil {
		return p, err
	}
	if p.ThumbSize, err = formInt(ctx, "thumb_size"); err != nil {
		return p, err
	}
	p.SessionID = ctx.PostForm("client_id")

	return h.withDefaults(p), nil
}

func (h UploadHandler) withDefaults(p model.UploadParams) model.UploadParams {
	if p.Quality == 0 {
		p.Quality = h.defaults.Quality
	}
	if p.ThumbQuality == 0 {
		p.ThumbQuality = h.defaults.ThumbQuality
	}
	if p.ThumbSize == 0 {
		p.ThumbSize = h.defaults.ThumbSize
	}
	return p
}

func formInt(ctx *ginext.Context, field string) (int, error) {
	raw := strings.TrimSpace(ctx.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidField(field)
	}
	return v, nil
}
