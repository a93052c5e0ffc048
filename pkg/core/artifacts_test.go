package core

import "testing"

func TestNewScreenshotAttachment(t *testing.T) {
	data := []byte{0x89, 0x50, 0x4E, 0x47} // PNG header
	attachment := NewScreenshotAttachment("screenshots/login_failed.png", data)

	if attachment.Name != AttachmentScreenshot {
		t.Errorf("Name = %s, want %s", attachment.Name, AttachmentScreenshot)
	}
	if attachment.ContentType != ContentTypePNG {
		t.Errorf("ContentType = %s, want %s", attachment.ContentType, ContentTypePNG)
	}
	if len(attachment.Body) != 4 {
		t.Errorf("Body length = %d, want 4", len(attachment.Body))
	}
}

func TestArtifactConfig_ShouldCapture(t *testing.T) {
	cfg := DefaultArtifactConfig()

	tests := []struct {
		status   Status
		expected bool
	}{
		{StatusFailed, true},
		{StatusErrored, true},
		{StatusPassed, false},
		{StatusSkipped, false},
		{StatusPending, false},
	}

	for _, tt := range tests {
		if got := cfg.ShouldCapture(tt.status); got != tt.expected {
			t.Errorf("ShouldCapture(%s) = %v, want %v", tt.status, got, tt.expected)
		}
	}
}

func TestArtifactConfig_CaptureOnSuccess(t *testing.T) {
	cfg := ArtifactConfig{CaptureOnSuccess: true}

	if !cfg.ShouldCapture(StatusPassed) {
		t.Error("ShouldCapture(StatusPassed) should be true when CaptureOnSuccess is true")
	}
	if cfg.ShouldCapture(StatusFailed) {
		t.Error("ShouldCapture(StatusFailed) should be false when CaptureOnFailure is false")
	}
}
