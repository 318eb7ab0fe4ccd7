package handler

import (
	"mime"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"landing-v2/pkg/logger"
)

// contentTypes maps the extensions the landing site actually ships. Anything
// else goes through mime.TypeByExtension.
var contentTypes = map[string]string{
	".html":        "text/html; charset=utf-8",
	".css":         "text/css; charset=utf-8",
	".js":          "application/javascript",
	".mjs":         "application/javascript",
	".json":        "application/json",
	".svg":         "image/svg+xml",
	".png":         "image/png",
	".jpg":         "image/jpeg",
	".jpeg":        "image/jpeg",
	".gif":         "image/gif",
	".webp":        "image/webp",
	".ico":         "image/x-icon",
	".woff":        "font/woff",
	".woff2":       "font/woff2",
	".txt":         "text/plain; charset=utf-8",
	".xml":         "application/xml",
	".webmanifest": "application/manifest+json",
	".pdf":         "application/pdf",
	".mp4":         "video/mp4",
}

// StaticHandler serves the landing-page assets from a root directory.
type StaticHandler struct {
	root   string
	logger *logger.Logger
}

// NewStaticHandler creates a new static asset handler
func NewStaticHandler(root string, logger *logger.Logger) *StaticHandler {
	return &StaticHandler{
		root:   root,
		logger: logger,
	}
}

// ServeHTTP serves one asset, guarding against path traversal.
func (h *StaticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Clean resolves any ".." segments; rooting the path at "/" first means
	// the result can never climb above the site root.
	urlPath := path.Clean("/" + r.URL.Path)
	if urlPath == "/" {
		urlPath = "/index.html"
	}

	filePath := filepath.Join(h.root, filepath.FromSlash(urlPath))
	if !h.withinRoot(filePath) {
		http.NotFound(w, r)
		return
	}

	info, err := os.Stat(filePath)
	if err == nil && info.IsDir() {
		filePath = filepath.Join(filePath, "index.html")
		info, err = os.Stat(filePath)
	}
	if err != nil {
		if os.IsNotExist(err) {
			http.NotFound(w, r)
			return
		}
		h.logger.WithError(err).WithField("path", urlPath).Error("Failed to stat static asset")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	f, err := os.Open(filePath)
	if err != nil {
		h.logger.WithError(err).WithField("path", urlPath).Error("Failed to open static asset")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentTypeFor(filePath))
	if strings.HasSuffix(filePath, ".html") {
		w.Header().Set("Cache-Control", "no-cache")
	} else {
		w.Header().Set("Cache-Control", "public, max-age=3600")
	}

	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// withinRoot reports whether the resolved file path stays under the root.
func (h *StaticHandler) withinRoot(filePath string) bool {
	rel, err := filepath.Rel(h.root, filePath)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// contentTypeFor resolves the response content type from the file extension.
func contentTypeFor(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	if ct := mime.TypeByExtension(ext); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
