package core

// Attachment represents a debug artifact captured for a scenario
type Attachment struct {
	Name        string `json:"name"`        // Descriptive name: screenshot
	ContentType string `json:"contentType"` // MIME type: image/png
	Path        string `json:"path"`        // File path on disk
	Body        []byte `json:"-"`           // In-memory content (not serialized to JSON)
}

// Common attachment names
const (
	AttachmentScreenshot = "screenshot"
)

// Common content types
const (
	ContentTypePNG = "image/png"
)

// NewScreenshotAttachment creates a screenshot attachment
func NewScreenshotAttachment(path string, data []byte) Attachment {
	return Attachment{
		Name:        AttachmentScreenshot,
		ContentType: ContentTypePNG,
		Path:        path,
		Body:        data,
	}
}

// ArtifactConfig controls when artifacts are captured
type ArtifactConfig struct {
	CaptureOnFailure bool   `yaml:"captureOnFailure" json:"captureOnFailure"` // Default: true
	CaptureOnSuccess bool   `yaml:"captureOnSuccess" json:"captureOnSuccess"` // Default: false
	Dir              string `yaml:"dir" json:"dir"`                           // Default: screenshots/
	Timestamp        bool   `yaml:"timestamp" json:"timestamp"`               // Default: true
}

// DefaultArtifactConfig returns sensible defaults for artifact capture
func DefaultArtifactConfig() ArtifactConfig {
	return ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: false,
		Dir:              "screenshots/",
		Timestamp:        true,
	}
}

// ShouldCapture returns true if artifacts should be captured for the given status
func (c ArtifactConfig) ShouldCapture(status Status) bool {
	switch status {
	case StatusFailed, StatusErrored:
		return c.CaptureOnFailure
	case StatusPassed:
		return c.CaptureOnSuccess
	default:
		return false
	}
}
