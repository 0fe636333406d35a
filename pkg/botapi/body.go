package botapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Args holds the named arguments of a remote call.
type Args map[string]any

const (
	defaultFileContentType = "application/octet-stream"
	defaultTransferEncoding = "binary"
)

// File is a file attachment. Any call carrying one is sent as multipart form data.
type File struct {
	filename                string
	content                 []byte
	contentType             string
	contentTransferEncoding string
}

// NewFile creates an attachment. The content type is guessed from the file
// extension and the transfer encoding defaults to binary.
func NewFile(filename string, content []byte) *File {
	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = defaultFileContentType
	}

	return &File{
		filename:                filename,
		content:                 content,
		contentType:             contentType,
		contentTransferEncoding: defaultTransferEncoding,
	}
}

// SetContentType overrides the guessed content type.
func (f *File) SetContentType(contentType string) {
	f.contentType = contentType
}

// SetContentTransferEncoding overrides the default content transfer encoding.
func (f *File) SetContentTransferEncoding(encoding string) {
	f.contentTransferEncoding = encoding
}

// Filename returns the name the file is uploaded under.
func (f *File) Filename() string {
	return f.filename
}

// ContentType returns the content type the file is uploaded with.
func (f *File) ContentType() string {
	return f.contentType
}

var errFileNotJSON = errors.New("file attachments cannot be encoded as JSON")

// MarshalJSON always fails so that calls with attachments fall back to multipart.
func (f *File) MarshalJSON() ([]byte, error) {
	return nil, errFileNotJSON
}

// Encode turns args into a request body and the headers describing it.
//
// JSON is tried first. If any value refuses JSON encoding (a *File or a type
// the encoder does not know) the body is built as multipart form data instead.
// Multipart fields are written in sorted key order, since Args does not keep
// the order the caller inserted them in.
func Encode(args Args) (http.Header, []byte, error) {
	if args == nil {
		args = Args{}
	}

	header := http.Header{}

	data, err := json.Marshal(args)
	if err == nil {
		header.Set("Content-Type", "application/json")

		return header, data, nil
	}

	contentType, data, err := encodeForm(args)
	if err != nil {
		return nil, nil, err
	}
	header.Set("Content-Type", contentType)

	return header, data, nil
}

func encodeForm(args Args) (string, []byte, error) {
	names := make([]string, 0, len(args))
	for name := range args {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, name := range names {
		err := writeFormField(writer, name, args[name])
		if err != nil {
			return "", nil, err
		}
	}

	err := writer.Close()
	if err != nil {
		return "", nil, fmt.Errorf("close multipart writer: %w", err)
	}

	return writer.FormDataContentType(), buf.Bytes(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func writeFormField(writer *multipart.Writer, name string, value any) error {
	if file, ok := value.(*File); ok {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
			quoteEscaper.Replace(name), quoteEscaper.Replace(file.filename)))
		header.Set("Content-Type", file.contentType)
		if file.contentTransferEncoding != "" {
			header.Set("Content-Transfer-Encoding", file.contentTransferEncoding)
		}

		part, err := writer.CreatePart(header)
		if err != nil {
			return fmt.Errorf("create file part %q: %w", name, err)
		}

		_, err = part.Write(file.content)
		if err != nil {
			return fmt.Errorf("write file part %q: %w", name, err)
		}

		return nil
	}

	text, err := formText(value)
	if err != nil {
		return fmt.Errorf("%w: argument %q: %w", ErrUnsupportedArgumentType, name, err)
	}

	err = writer.WriteField(name, text)
	if err != nil {
		return fmt.Errorf("write field %q: %w", name, err)
	}

	return nil
}

func formText(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case json.Number:
		return v.String(), nil
	case *Dict:
		return jsonText(v)
	case nil:
		return "", errors.New("nil value")
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return jsonText(value)
	case reflect.Pointer:
		if !rv.IsNil() && rv.Elem().Kind() == reflect.Struct {
			return jsonText(value)
		}
	}

	return "", fmt.Errorf("type %T", value)
}

func jsonText(value any) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", err
	}

	return string(data), nil
}
