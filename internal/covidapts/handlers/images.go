package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

// ImageHandler serves stored company photos under their resource path.
type ImageHandler struct {
	dir       string
	urlPrefix string
}

// NewImageHandler serves files of dir under urlPrefix.
func NewImageHandler(dir, urlPrefix string) *ImageHandler {
	return &ImageHandler{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}
}

// RegisterRoutes binds the photo route to mux.
func (h *ImageHandler) RegisterRoutes(mux *runtime.ServeMux) error {
	return mux.HandlePath(http.MethodGet, h.urlPrefix+"/{name}", h.serve)
}

func (h *ImageHandler) serve(w http.ResponseWriter, r *http.Request, params map[string]string) {
	name := filepath.Base(filepath.Clean("/" + params["name"]))
	if name == "/" || name == "." {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.dir, name))
}
