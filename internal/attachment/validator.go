// Package attachment validates and stages files before they are
// uploaded with a task.
package attachment

import (
	"fmt"
	"strings"

	"github.com/nakachan-ing/dtl-cli/internal/model"
)

type Limits struct {
	MaxFiles      int
	MaxFileSizeMB int
	AcceptedTypes []string // MIME wildcards ("image/*") or extensions (".pdf")
}

func DefaultLimits() Limits {
	return Limits{
		MaxFiles:      5,
		MaxFileSizeMB: 10,
		AcceptedTypes: []string{
			"image/*", "video/*", "audio/*",
			".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt", ".zip", ".rar",
		},
	}
}

// LimitsFromConfig fills unset config values with the defaults.
func LimitsFromConfig(c model.AttachmentConfig) Limits {
	limits := DefaultLimits()
	if c.MaxFiles > 0 {
		limits.MaxFiles = c.MaxFiles
	}
	if c.MaxFileSizeMB > 0 {
		limits.MaxFileSizeMB = c.MaxFileSizeMB
	}
	if len(c.AcceptedTypes) > 0 {
		limits.AcceptedTypes = c.AcceptedTypes
	}
	return limits
}

func (l Limits) maxBytes() int64 {
	return int64(l.MaxFileSizeMB) * 1024 * 1024
}

// Accept returns the accept string used by file pickers.
func (l Limits) Accept() string {
	return strings.Join(l.AcceptedTypes, ",")
}

type Result struct {
	Accepted []model.AttachmentCandidate
	Errors   []string
}

// Validate checks incoming files against limits, given the files
// already staged. Exceeding the file count rejects the whole batch;
// every other rule is applied per file.
func Validate(existing, incoming []model.AttachmentCandidate, limits Limits) Result {
	var res Result
	if len(existing)+len(incoming) > limits.MaxFiles {
		res.Errors = append(res.Errors, fmt.Sprintf("Maximum %d files allowed", limits.MaxFiles))
		return res
	}

	for _, file := range incoming {
		if file.Size > limits.maxBytes() {
			res.Errors = append(res.Errors, fmt.Sprintf("%s exceeds %dMB limit", file.Name, limits.MaxFileSizeMB))
			continue
		}
		if !TypeAllowed(file, limits.AcceptedTypes) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s is not a supported file type", file.Name))
			continue
		}
		if isDuplicate(file, existing) || isDuplicate(file, res.Accepted) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s is already selected", file.Name))
			continue
		}
		res.Accepted = append(res.Accepted, file)
	}
	return res
}

// TypeAllowed matches a file against MIME wildcards by prefix and
// against extensions by case-insensitive suffix.
func TypeAllowed(file model.AttachmentCandidate, accepted []string) bool {
	name := strings.ToLower(file.Name)
	mimeType := strings.ToLower(file.MIMEType)
	for _, rule := range accepted {
		rule = strings.ToLower(strings.TrimSpace(rule))
		switch {
		case rule == "":
			continue
		case strings.HasSuffix(rule, "/*"):
			if mimeType != "" && strings.HasPrefix(mimeType, strings.TrimSuffix(rule, "*")) {
				return true
			}
		case strings.HasPrefix(rule, "."):
			if strings.HasSuffix(name, rule) {
				return true
			}
		default:
			if mimeType == rule {
				return true
			}
		}
	}
	return false
}

func isDuplicate(file model.AttachmentCandidate, staged []model.AttachmentCandidate) bool {
	for _, s := range staged {
		if s.Name == file.Name && s.Size == file.Size {
			return true
		}
	}
	return false
}
