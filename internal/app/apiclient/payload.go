package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// Payload is the body of a create/update call: either structured Fields or a
// pre-built Multipart body.
type Payload interface {
	apply(req *resty.Request) error
}

// Fields is a structured write payload. It is always sent as multipart form data:
// slice and array values become JSON-encoded strings, nil values are omitted and
// everything else is sent as a plain text field.
type Fields map[string]any

func (f Fields) apply(req *resty.Request) error {
	encoded, err := EncodeFields(f)
	if err != nil {
		return err
	}
	req.SetMultipartFormData(encoded)
	return nil
}

// File is one file part of a Multipart payload.
type File struct {
	Field       string
	Name        string
	ContentType string
	Reader      io.Reader
}

// Multipart is a pre-built multipart payload, forwarded as is.
type Multipart struct {
	Fields map[string]string
	Files  []File
}

func (m *Multipart) apply(req *resty.Request) error {
	if len(m.Fields) > 0 || len(m.Files) == 0 {
		req.SetMultipartFormData(m.Fields)
	}
	for _, f := range m.Files {
		req.SetMultipartField(f.Field, f.Name, f.ContentType, f.Reader)
	}
	return nil
}

// FieldsOf converts a struct (or anything JSON-encodable to an object) into Fields
// using its json tags. Fields dropped by omitempty, and null values, are absent.
func FieldsOf(v any) (Fields, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out Fields
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("payload is not an object: %w", err)
	}
	return out, nil
}

// EncodeFields flattens Fields to multipart text values.
func EncodeFields(f Fields) (map[string]string, error) {
	out := make(map[string]string, len(f))

	for key, value := range f {
		encoded, ok, err := encodeValue(value)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		if ok {
			out[key] = encoded
		}
	}

	return out, nil
}

func encodeValue(value any) (string, bool, error) {
	if value == nil {
		return "", false, nil
	}

	switch v := value.(type) {
	case string:
		return v, true, nil
	case json.Number:
		return v.String(), true, nil
	case bool:
		return strconv.FormatBool(v), true, nil
	case []byte:
		return string(v), true, nil
	case time.Time:
		return v.Format(time.RFC3339), true, nil
	}

	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return "", false, nil
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return "", false, nil
		}
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return "", false, err
		}
		return string(raw), true, nil
	default:
		return fmt.Sprint(rv.Interface()), true, nil
	}
}
