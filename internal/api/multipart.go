package api

import (
	"fmt"
	"mime/multipart"
	"net/textproto"
	"strconv"
	"strings"
)

// MultipartEncoder is implemented by request DTOs that carry files.  The DTO
// keeps typed fields; field names and indexes only appear here, at the
// boundary.
type MultipartEncoder interface {
	EncodeMultipart(w *multipart.Writer) error
}

// Upload is a file attached to a request.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Empty reports whether no file was supplied.
func (u *Upload) Empty() bool { return u == nil || len(u.Data) == 0 }

// WriteFile writes u as a form file part named field.
func WriteFile(w *multipart.Writer, field string, u Upload) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(field), escapeQuotes(u.Filename)))
	ct := u.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(u.Data)
	return err
}

// Fields accumulates plain form values and writes them in insertion order.
type Fields struct {
	keys []string
	vals []string
}

// Set appends a string field.
func (f *Fields) Set(key, value string) *Fields {
	f.keys = append(f.keys, key)
	f.vals = append(f.vals, value)
	return f
}

// SetInt appends an integer field.
func (f *Fields) SetInt(key string, v int64) *Fields {
	return f.Set(key, strconv.FormatInt(v, 10))
}

// SetOptInt appends an integer field, or an empty value when v is nil so
// the backend clears it.
func (f *Fields) SetOptInt(key string, v *int64) *Fields {
	if v == nil {
		return f.Set(key, "")
	}
	return f.SetInt(key, *v)
}

// SetBool appends a 1/0 field, the encoding the backend expects.
func (f *Fields) SetBool(key string, v bool) *Fields {
	if v {
		return f.Set(key, "1")
	}
	return f.Set(key, "0")
}

// SetIndexed appends key[0], key[1], ... for each value.
func (f *Fields) SetIndexed(key string, values []string) *Fields {
	for i, v := range values {
		f.Set(key+"["+strconv.Itoa(i)+"]", v)
	}
	return f
}

// Write emits every accumulated field to w.
func (f *Fields) Write(w *multipart.Writer) error {
	for i, k := range f.keys {
		if err := w.WriteField(k, f.vals[i]); err != nil {
			return err
		}
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string { return quoteEscaper.Replace(s) }
