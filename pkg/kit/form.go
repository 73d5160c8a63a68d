package kit

import (
	"net/http"

	"github.com/go-playground/form/v4"
)

const maxFormBytes = 1 << 20

var formDecoder = form.NewDecoder()

// DecodeForm parses an url-encoded POST body into dst. Field names come from
// `form:"..."` tags.
func DecodeForm(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		return err
	}
	return formDecoder.Decode(dst, r.PostForm)
}
