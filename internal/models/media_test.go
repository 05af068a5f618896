package models

import (
	"errors"
	"testing"
)

func TestFileTypeForExtension(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{"jpg", FileTypeImage},
		{".PNG", FileTypeImage},
		{"mp4", FileTypeVideo},
		{"avi", FileTypeVideo},
		{"MKV", FileTypeVideo},
		{"flv", FileTypeVideo},
		{"mp3", FileTypeAudio},
		{"flac", FileTypeAudio},
		{"aac", FileTypeAudio},
		{"m4a", FileTypeAudio},
		{"docx", FileTypeDocument},
		{"xlsx", FileTypeDocument},
		{"ppt", FileTypeDocument},
		{"zip", FileTypeOther},
		{"", FileTypeOther},
	}

	for _, tt := range tests {
		if got := FileTypeForExtension(tt.ext); got != tt.expected {
			t.Errorf("FileTypeForExtension(%q) = %q, expected %q", tt.ext, got, tt.expected)
		}
	}
}

func TestDefaultDocumentType(t *testing.T) {
	tests := []struct {
		ext      string
		expected string
	}{
		{"pdf", "pdf"},
		{".DOCX", "doc"},
		{"xls", "spreadsheet"},
		{"xlsx", "spreadsheet"},
		{"ppt", "presentation"},
		{"pptx", "presentation"},
		{"txt", "other"},
	}

	for _, tt := range tests {
		got := DefaultDocumentType(tt.ext)
		if got != tt.expected {
			t.Errorf("DefaultDocumentType(%q) = %q, expected %q", tt.ext, got, tt.expected)
		}
		if !documentTypes[got] {
			t.Errorf("DefaultDocumentType(%q) returned unknown type %q", tt.ext, got)
		}
	}
}

func TestSetDetails_TagMustMatch(t *testing.T) {
	m := &MediaAsset{FileType: FileTypeImage}

	if err := m.SetDetails(&ImageDetails{Format: "png", Width: 10, Height: 20}); err != nil {
		t.Fatalf("SetDetails() error = %v", err)
	}
	d, err := m.ImageDetails()
	if err != nil {
		t.Fatalf("ImageDetails() error = %v", err)
	}
	if d.Width != 10 || d.Height != 20 || d.Format != "png" {
		t.Errorf("unexpected details: %+v", d)
	}

	if err := m.SetDetails(&AudioDetails{Artist: "x"}); !errors.Is(err, ErrDetailsMismatch) {
		t.Errorf("expected ErrDetailsMismatch for audio details on image, got %v", err)
	}
	if _, err := m.VideoDetails(); !errors.Is(err, ErrDetailsMismatch) {
		t.Errorf("expected ErrDetailsMismatch reading video details of image, got %v", err)
	}
}

func TestAccessors_EmptyDetails(t *testing.T) {
	m := &MediaAsset{FileType: FileTypeDocument}
	d, err := m.DocumentDetails()
	if err != nil {
		t.Fatalf("DocumentDetails() error = %v", err)
	}
	if d.PageCount != 0 {
		t.Errorf("expected zero value details, got %+v", d)
	}
}

func TestDecodeDetails(t *testing.T) {
	tests := []struct {
		name     string
		fileType string
		raw      string
		wantErr  bool
	}{
		{"image ok", FileTypeImage, `{"alt_text":"logo","width":5}`, false},
		{"video quality ok", FileTypeVideo, `{"quality":"1080p"}`, false},
		{"video bad quality", FileTypeVideo, `{"quality":"8k"}`, true},
		{"audio unknown field", FileTypeAudio, `{"page_count":3}`, true},
		{"document bad type", FileTypeDocument, `{"document_type":"zip"}`, true},
		{"document negative pages", FileTypeDocument, `{"page_count":-1}`, true},
		{"other has no details", FileTypeOther, `{}`, true},
		{"malformed", FileTypeImage, `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDetails(tt.fileType, []byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Errorf("DecodeDetails() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrDetailsMismatch) {
				t.Errorf("expected ErrDetailsMismatch, got %v", err)
			}
		})
	}
}
