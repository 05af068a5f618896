package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

const (
	FileTypeImage    = "image"
	FileTypeVideo    = "video"
	FileTypeAudio    = "audio"
	FileTypeDocument = "document"
	FileTypeOther    = "other"

	MediaStatusUploading  = "uploading"
	MediaStatusProcessing = "processing"
	MediaStatusReady      = "ready"
	MediaStatusError      = "error"
)

// ErrDetailsMismatch is returned when a details payload does not belong to the asset's file type.
var ErrDetailsMismatch = errors.New("details do not match media file type")

// MediaAsset is an uploaded file owned by one user. FileType tags the
// variant and Details carries the payload for that variant.
type MediaAsset struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Title           string         `gorm:"size:255;not null" json:"title"`
	Description     string         `gorm:"size:500" json:"description"`
	FileKey         string         `gorm:"size:500;not null" json:"-"`
	OriginalName    string         `gorm:"size:255" json:"original_name"`
	FileType        string         `gorm:"size:20;index:idx_media_owner_type;not null" json:"file_type"`
	FileSize        int64          `json:"file_size"`
	MimeType        string         `gorm:"size:100" json:"mime_type"`
	OwnerID         uint           `gorm:"index:idx_media_owner_type;not null" json:"owner_id"`
	Owner           *User          `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"owner,omitempty"`
	Status          string         `gorm:"size:20;index:idx_media_public_status;default:processing" json:"status"`
	IsPublic        bool           `gorm:"index:idx_media_public_status" json:"is_public"`
	Details         datatypes.JSON `json:"details,omitempty"`
	ProcessingError string         `gorm:"size:500" json:"processing_error,omitempty"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`

	Usages []ProjectMedia `gorm:"foreignKey:MediaID;constraint:OnDelete:CASCADE" json:"-"`
}

func (MediaAsset) TableName() string { return "media_assets" }

type ImageDetails struct {
	Format      string `json:"format,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	AltText     string `json:"alt_text,omitempty"`
	IsThumbnail bool   `json:"is_thumbnail,omitempty"`
}

type VideoDetails struct {
	Codec    string `json:"codec,omitempty"`
	Quality  string `json:"quality,omitempty"` // 360p, 480p, 720p, 1080p, 4k
	Duration int    `json:"duration,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

type AudioDetails struct {
	Artist   string `json:"artist,omitempty"`
	Album    string `json:"album,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Codec    string `json:"codec,omitempty"`
	Bitrate  int    `json:"bitrate,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type DocumentDetails struct {
	DocumentType string `json:"document_type,omitempty"` // pdf, doc, spreadsheet, presentation, other
	PageCount    int    `json:"page_count,omitempty"`
}

var videoQualities = map[string]bool{"360p": true, "480p": true, "720p": true, "1080p": true, "4k": true}

var documentTypes = map[string]bool{"pdf": true, "doc": true, "spreadsheet": true, "presentation": true, "other": true}

var extensionTypes = map[string]string{
	"jpg": FileTypeImage, "jpeg": FileTypeImage, "png": FileTypeImage, "gif": FileTypeImage,
	"bmp": FileTypeImage, "webp": FileTypeImage,
	"mp4": FileTypeVideo, "webm": FileTypeVideo, "mov": FileTypeVideo, "avi": FileTypeVideo,
	"mkv": FileTypeVideo, "flv": FileTypeVideo,
	"mp3": FileTypeAudio, "wav": FileTypeAudio, "ogg": FileTypeAudio, "flac": FileTypeAudio,
	"aac": FileTypeAudio, "m4a": FileTypeAudio,
	"pdf": FileTypeDocument, "doc": FileTypeDocument, "docx": FileTypeDocument,
	"xls": FileTypeDocument, "xlsx": FileTypeDocument, "ppt": FileTypeDocument, "pptx": FileTypeDocument,
}

// FileTypeForExtension maps a file extension to its media file type.
func FileTypeForExtension(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return FileTypeOther
}

// DefaultDocumentType guesses the document kind from its extension.
func DefaultDocumentType(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return "pdf"
	case "doc", "docx":
		return "doc"
	case "xls", "xlsx":
		return "spreadsheet"
	case "ppt", "pptx":
		return "presentation"
	}
	return "other"
}

func newDetails(fileType string) (interface{}, error) {
	switch fileType {
	case FileTypeImage:
		return &ImageDetails{}, nil
	case FileTypeVideo:
		return &VideoDetails{}, nil
	case FileTypeAudio:
		return &AudioDetails{}, nil
	case FileTypeDocument:
		return &DocumentDetails{}, nil
	}
	return nil, fmt.Errorf("%w: %s carries no details", ErrDetailsMismatch, fileType)
}

// DecodeDetails strictly decodes raw as the payload for fileType. Unknown
// fields, values out of range and enum values outside their set are rejected.
func DecodeDetails(fileType string, raw []byte) (interface{}, error) {
	v, err := newDetails(fileType)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetailsMismatch, err)
	}
	if err := validateDetails(v); err != nil {
		return nil, err
	}
	return v, nil
}

func validateDetails(v interface{}) error {
	switch d := v.(type) {
	case *ImageDetails:
		if d.Width < 0 || d.Height < 0 {
			return fmt.Errorf("%w: negative dimensions", ErrDetailsMismatch)
		}
	case *VideoDetails:
		if d.Quality != "" && !videoQualities[d.Quality] {
			return fmt.Errorf("%w: unknown quality %q", ErrDetailsMismatch, d.Quality)
		}
		if d.Duration < 0 || d.Width < 0 || d.Height < 0 {
			return fmt.Errorf("%w: negative value", ErrDetailsMismatch)
		}
	case *AudioDetails:
		if d.Bitrate < 0 || d.Duration < 0 {
			return fmt.Errorf("%w: negative value", ErrDetailsMismatch)
		}
	case *DocumentDetails:
		if d.DocumentType != "" && !documentTypes[d.DocumentType] {
			return fmt.Errorf("%w: unknown document type %q", ErrDetailsMismatch, d.DocumentType)
		}
		if d.PageCount < 0 {
			return fmt.Errorf("%w: negative page count", ErrDetailsMismatch)
		}
	}
	return nil
}

// SetDetails stores v as the asset's payload. v must be the details type of the asset's FileType.
func (m *MediaAsset) SetDetails(v interface{}) error {
	var want string
	switch v.(type) {
	case *ImageDetails, ImageDetails:
		want = FileTypeImage
	case *VideoDetails, VideoDetails:
		want = FileTypeVideo
	case *AudioDetails, AudioDetails:
		want = FileTypeAudio
	case *DocumentDetails, DocumentDetails:
		want = FileTypeDocument
	default:
		return fmt.Errorf("%w: unsupported details type %T", ErrDetailsMismatch, v)
	}
	if want != m.FileType {
		return fmt.Errorf("%w: %s details on %s asset", ErrDetailsMismatch, want, m.FileType)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.Details = datatypes.JSON(data)
	return nil
}

func (m *MediaAsset) decodeAs(fileType string, v interface{}) error {
	if m.FileType != fileType {
		return fmt.Errorf("%w: asset is %s, not %s", ErrDetailsMismatch, m.FileType, fileType)
	}
	if len(m.Details) == 0 {
		return nil
	}
	return json.Unmarshal(m.Details, v)
}

func (m *MediaAsset) ImageDetails() (*ImageDetails, error) {
	d := &ImageDetails{}
	if err := m.decodeAs(FileTypeImage, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (m *MediaAsset) VideoDetails() (*VideoDetails, error) {
	d := &VideoDetails{}
	if err := m.decodeAs(FileTypeVideo, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (m *MediaAsset) AudioDetails() (*AudioDetails, error) {
	d := &AudioDetails{}
	if err := m.decodeAs(FileTypeAudio, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (m *MediaAsset) DocumentDetails() (*DocumentDetails, error) {
	d := &DocumentDetails{}
	if err := m.decodeAs(FileTypeDocument, d); err != nil {
		return nil, err
	}
	return d, nil
}
