package posts

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/jrsteele09/go-social-client/internal/utils"
)

// MaxContentLength is the backend's bound on post text.
const MaxContentLength = 1000

var (
	EmptyContentErr   = errors.New("post content is required")
	ContentTooLongErr = errors.New("post content exceeds maximum length")
)

// Draft holds composer state before submission. The image attachment is
// independent of the text: attaching or clearing it never affects content
// validation.
type Draft struct {
	content  string
	imageURL string
}

func (d *Draft) SetContent(content string) {
	d.content = content
}

func (d *Draft) Content() string {
	return d.content
}

func (d *Draft) AttachImage(url string) {
	d.imageURL = url
}

func (d *Draft) ClearImage() {
	d.imageURL = ""
}

func (d *Draft) Reset() {
	d.content = ""
	d.imageURL = ""
}

// Validate checks the draft against the backend's rules on the trimmed text.
// The length bound counts characters, not bytes, matching the backend.
func (d *Draft) Validate() error {
	trimmed := strings.TrimSpace(d.content)
	if trimmed == "" {
		return EmptyContentErr
	}
	if utf8.RuneCountInString(trimmed) > MaxContentLength {
		return ContentTooLongErr
	}
	return nil
}

// Normalized returns the submission payload: trimmed content and the image
// URL with a blank value normalized to absent.
func (d *Draft) Normalized() (string, *string) {
	content := strings.TrimSpace(d.content)
	imageURL := strings.TrimSpace(d.imageURL)
	if imageURL == "" {
		return content, nil
	}
	return content, utils.Ptr(imageURL)
}
