package attachment

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/nakachan-ing/dtl-cli/internal/model"
)

// Stage builds attachment candidates from local files. Validation is
// left to Validate so callers can report every rule violation together.
func Stage(paths []string) ([]model.AttachmentCandidate, error) {
	candidates := make([]model.AttachmentCandidate, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat attachment %s: %w", p, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("attachment %s is a directory", p)
		}
		mimeType, err := detectMIMEType(p)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, model.AttachmentCandidate{
			ID:       uuid.NewString(),
			Name:     filepath.Base(p),
			Size:     info.Size(),
			MIMEType: mimeType,
			Path:     p,
		})
	}
	return candidates, nil
}

func detectMIMEType(path string) (string, error) {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		mediaType, _, err := mime.ParseMediaType(byExt)
		if err == nil {
			return mediaType, nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open attachment %s: %w", path, err)
	}
	defer f.Close()

	head := make([]byte, 512)
	n, err := f.Read(head)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	mediaType, _, _ := mime.ParseMediaType(http.DetectContentType(head[:n]))
	return mediaType, nil
}
