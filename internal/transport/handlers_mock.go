package transport

import (
	"context"
	"net/http"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/gin-gonic/gin"
)

type mockUploadService struct {
	processFn func(ctx context.Context, req *model.BatchRequest) (*model.BatchAck, error)
	got       *model.BatchRequest
}

func (m *mockUploadService) Process(ctx context.Context, req *model.BatchRequest) (*model.BatchAck, error) {
	m.got = req
	return m.processFn(ctx, req)
}

type mockHub struct {
	serveFn func(w http.ResponseWriter, r *http.Request, sessionID string) error
}

func (m *mockHub) ServeWS(w http.ResponseWriter, r *http.Request, sessionID string) error {
	return m.serveFn(w, r, sessionID)
}

func init() {
	gin.SetMode(gin.TestMode)
}
