package transport

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/UnendingLoop/WebPUploader/internal/model"
)

func errorCodeDefiner(err error) int {
	switch {
	case errors.Is(err, model.ErrCommon500),
		errors.Is(err, model.ErrConfig),
		errors.Is(err, model.ErrStorageInit),
		errors.Is(err, model.ErrUnsupportedDriver):
		return 500
	case errors.Is(err, model.ErrInvalidInput),
		errors.Is(err, model.ErrInvalidParams),
		errors.Is(err, model.ErrEmptyBatch),
		errors.Is(err, model.ErrUnsupportedFormat):
		return 400
	case errors.Is(err, model.ErrEncode):
		return 422
	case errors.Is(err, model.ErrExhaustedRetries),
		errors.Is(err, model.ErrUpload):
		return 502
	default:
		return 500
	}
}

func invalidField(field string) error {
	return fmt.Errorf("%w: %s must be an integer", model.ErrInvalidParams, field)
}

func closeFileFlow(res io.ReadCloser) {
	if res == nil {
		return
	}
	if err := res.Close(); err != nil {
		log.Println("Handler failed to close fileflow:", err)
	}
}
