package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"cxr-learning/internal/radiograph"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

// imageErrorMessage 影像错误 -> 用户可读提示
func imageErrorMessage(err error) string {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return "Image is too large"
	case errors.Is(err, radiograph.ErrUnsupported):
		return radiograph.ErrUnsupported.Error()
	case errors.Is(err, radiograph.ErrTooLarge):
		return "Image dimensions are too large. Resize it and try again"
	case errors.Is(err, radiograph.ErrFormat):
		return "Unsupported file format. Use DICOM, JPEG, PNG or TIFF"
	case errors.Is(err, radiograph.ErrDecode):
		return "Could not read the image file. It may be corrupted"
	default:
		return "Image processing failed"
	}
}
