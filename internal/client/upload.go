package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/stemsi/courseware/internal/model"
)

// ProgressFunc receives the bytes sent so far and the expected total.
// total is 0 when unknown.
type ProgressFunc func(sent, total int64)

// progressReader reports every read to fn.
type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}

// UploadFile streams r into the folder as a multipart "file" part. The body
// is produced while it is sent, so large files are never held in memory.
func (c *Client) UploadFile(ctx context.Context, folderID int64, name string, r io.Reader, size int64, progress ProgressFunc) (*model.File, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(name)))
		h.Set("Content-Type", contentTypeFor(name))

		part, err := mw.CreatePart(h)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, &progressReader{r: r, total: size, fn: progress}); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(mw.Close())
	}()

	req, err := c.newRequest(ctx, http.MethodPost, "/folders/"+id(folderID)+"/files", pr)
	if err != nil {
		_ = pr.Close()
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	env, err := c.send(req)
	// Unblock the writer if the server answered before reading everything.
	_ = pr.Close()
	if err != nil {
		return nil, err
	}

	var out model.File
	if err := decodeInto(env, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
