// Package model provides data-structs for internal app-usage
package model

import (
	"bytes"
	"errors"
	"io"
)

type (
	Orientation  string
	ArtifactKind string
	Event        string
)

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Square    Orientation = "square"
)

// OrientationOf classifies an image by its dimensions.
func OrientationOf(w, h int) Orientation {
	switch {
	case w > h:
		return Landscape
	case h > w:
		return Portrait
	default:
		return Square
	}
}

const (
	KindOriginal  ArtifactKind = "originals"
	KindThumbnail ArtifactKind = "thumbnails"
)

const (
	EventImageUploaded Event = "image-uploaded"
	EventUploadFailed  Event = "upload-failed"
)

//---------------------

// RawImage - то, что отдает продюсер: row-major, channel-last буфер.
// Заполняется ровно одно из полей Float ([0,1]) или Bytes ([0,255]).
type RawImage struct {
	Width    int
	Height   int
	Channels int
	Float    []float32
	Bytes    []uint8
}

// SourceImage - нормализованная картинка H*W*3, 8 бит на канал
type SourceImage struct {
	Width  int
	Height int
	Pix    []uint8
}

//-------------------

// Artifact - закодированный файл, готовый к загрузке; перематывается перед каждой попыткой
type Artifact struct {
	Kind        ArtifactKind
	Key         string
	ContentType string
	data        *bytes.Reader
}

func NewArtifact(kind ArtifactKind, contentType string, data []byte) *Artifact {
	return &Artifact{Kind: kind, ContentType: contentType, data: bytes.NewReader(data)}
}

func (a *Artifact) Rewind() error {
	_, err := a.data.Seek(0, io.SeekStart)
	return err
}

func (a *Artifact) Reader() io.Reader { return a.data }

func (a *Artifact) Size() int64 { return a.data.Size() }

//-------------------

// Credentials - параметры подключения к хранилищу, приходят вместе с батчем
type Credentials struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	PublicURL string
	Region    string
}

// UploadParams - параметры обработки, общие для всех картинок батча
type UploadParams struct {
	Quality      int
	ThumbQuality int
	ThumbSize    int
	SessionID    string
}

type BatchRequest struct {
	Images      []RawImage
	Params      UploadParams
	Credentials Credentials
}

// BatchAck - подтверждение приема батча; результаты по картинкам уходят нотификациями
type BatchAck struct {
	Accepted int `json:"accepted"`
}

const (
	DefaultQuality      = 85
	DefaultThumbQuality = 75
	DefaultThumbSize    = 600

	MinQuality   = 1
	MaxQuality   = 100
	MinThumbSize = 100
	MaxThumbSize = 1200
)

//--------------------

type UploadedPayload struct {
	URL         string      `json:"url"`
	ThumbURL    string      `json:"thumb_url"`
	Path        string      `json:"path"`
	ThumbPath   string      `json:"thumb_path"`
	Orientation Orientation `json:"orientation"`
	Width       int         `json:"width"`
	Height      int         `json:"height"`
}

type FailedPayload struct {
	Error string `json:"error"`
	Index int    `json:"index"`
}

// ------------------

var (
	ErrConfig            error = errors.New("storage credentials missing")           // 500
	ErrInvalidInput      error = errors.New("invalid image provided")                // 400
	ErrInvalidParams     error = errors.New("incorrect upload parameters")           // 400
	ErrEncode            error = errors.New("failed to encode image")                // 422
	ErrUpload            error = errors.New("failed to upload artifact")             // 502
	ErrExhaustedRetries  error = errors.New("upload retries exhausted")              // 502
	ErrStorageInit       error = errors.New("failed to init object storage client")  // 500
	ErrUnsupportedDriver error = errors.New("unsupported storage driver")            // 500
	ErrUnsupportedFormat error = errors.New("unsupported image format")              // 400
	ErrEmptyBatch        error = errors.New("no images provided")                    // 400
	ErrCommon500         error = errors.New("something went wrong. Try again later") // 500
)

//--------------------

const (
	JPEG = "image/jpeg"
	PNG  = "image/png"
	GIF  = "image/gif"
	WEBP = "image/webp"
)

var GetImageFileExt = map[string]string{
	JPEG: ".jpg",
	PNG:  ".png",
	GIF:  ".gif",
	WEBP: ".webp",
}
