package admin

import (
	"errors"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/votemamu/web/internal/api"
)

// MaxImageSize bounds image uploads.
const MaxImageSize = 5 << 20

var (
	errNotImage   = errors.New("শুধুমাত্র ছবি আপলোড করা যাবে")
	errImageLarge = errors.New("ছবির আকার ৫ মেগাবাইটের বেশি")
)

// imageRule accepts an empty upload or a sniffed image within MaxImageSize.
var imageRule = validation.By(func(v interface{}) error {
	u, _ := v.(*api.Upload)
	if u.Empty() {
		return nil
	}
	if len(u.Data) > MaxImageSize {
		return errImageLarge
	}
	if !strings.HasPrefix(mimetype.Detect(u.Data).String(), "image/") {
		return errNotImage
	}
	return nil
})

// Sniff fills in the content type of u from its bytes.
func Sniff(u *api.Upload) {
	if u.Empty() {
		return
	}
	m := mimetype.Detect(u.Data)
	u.ContentType = m.String()
	if u.Filename == "" {
		u.Filename = "upload" + m.Extension()
	}
}

func optID(v int64) *int64 {
	if v <= 0 {
		return nil
	}
	return &v
}

func idOf(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
