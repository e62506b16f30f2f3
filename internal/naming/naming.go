// Package naming derives storage keys and public URLs for uploaded artifacts.
package naming

import (
	"path"
	"strings"

	"github.com/UnendingLoop/WebPUploader/internal/model"
	"github.com/google/uuid"
)

const (
	rootPrefix  = "generated"
	thumbSuffix = "_thumb"
)

// Keys - пара ключей одной картинки, связанная общим id и ориентацией
type Keys struct {
	ID          string
	Orientation model.Orientation
	Main        string
	Thumb       string
}

// NewID returns a fresh random identifier for one image.
func NewID() string {
	return uuid.NewString()
}

// ArtifactKeys builds generated/<kind>/<orientation>/<id>[_thumb]<ext>.
func ArtifactKeys(id string, o model.Orientation, ext string) Keys {
	return Keys{
		ID:          id,
		Orientation: o,
		Main:        path.Join(rootPrefix, string(model.KindOriginal), string(o), id+ext),
		Thumb:       path.Join(rootPrefix, string(model.KindThumbnail), string(o), id+thumbSuffix+ext),
	}
}

// PublicURL joins the public base and a key with exactly one slash between them.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
