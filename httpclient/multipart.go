package httpclient

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"slices"
	"strings"
)

// MultipartBody is a multipart/form-data request body. Pass it as
// Request.Body; the boundary is set on the Content-Type header. The body is
// encoded again on every retry, so file sources must be re-readable.
type MultipartBody struct {
	// Fields are written before the files, sorted by name.
	Fields map[string]string
	Files  []FileField
}

// FileField is one uploaded file. Exactly one of Data and Path should be set.
type FileField struct {
	// FieldName is the form field name, e.g. "file".
	FieldName string
	// FileName is sent to the server. Defaults to the base name of Path.
	FileName string
	// ContentType defaults to application/octet-stream.
	ContentType string
	Data        []byte
	// Path is opened and streamed into the part at encode time.
	Path string
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func (m *MultipartBody) encode() (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := w.WriteField(k, m.Fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, f := range m.Files {
		if err := writeFile(w, f); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

func writeFile(w *multipart.Writer, f FileField) error {
	name := f.FileName
	if name == "" && f.Path != "" {
		name = baseName(f.Path)
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		`form-data; name="`+quoteEscaper.Replace(f.FieldName)+`"; filename="`+quoteEscaper.Replace(name)+`"`)
	header.Set("Content-Type", contentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}

	if f.Path == "" {
		_, err = part.Write(f.Data)
		return err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return err
	}
	defer file.Close()
	_, err = io.Copy(part, file)
	return err
}

func baseName(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
