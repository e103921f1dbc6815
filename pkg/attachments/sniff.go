package attachments

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/goliatone/go-formwizard/pkg/listing"
)

// ErrUnsupportedType is returned for files whose content is not an image.
var ErrUnsupportedType = errors.New("attachments: unsupported file type")

// MaxSize bounds a single attachment payload.
const MaxSize int64 = 10 << 20

// FromBytes builds an attachment from raw file content. The content type is
// sniffed from the bytes, never taken from the name, and only images are
// accepted.
func FromBytes(name string, data []byte) (listing.Attachment, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return listing.Attachment{}, fmt.Errorf("%w: attachment name is empty", ErrInvalidArgument)
	}
	if len(data) == 0 {
		return listing.Attachment{}, fmt.Errorf("%w: %s is empty", ErrInvalidArgument, name)
	}
	if int64(len(data)) > MaxSize {
		return listing.Attachment{}, fmt.Errorf("%w: %s exceeds %d bytes", ErrInvalidArgument, name, MaxSize)
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return listing.Attachment{}, fmt.Errorf("%w: %s is %s", ErrUnsupportedType, name, mime.String())
	}

	return listing.Attachment{
		Name:        name,
		ContentType: mime.String(),
		Size:        int64(len(data)),
		Data:        append([]byte(nil), data...),
	}, nil
}
