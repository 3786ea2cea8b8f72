// internal/membership/request.go
package membership

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const maxBodyBytes = 1 << 20

var errInvalidBody = errors.New("invalid request body")

// fields is the merged set of request inputs: query values overlaid by body values.
type fields map[string]any

func readFields(w http.ResponseWriter, r *http.Request) (fields, error) {
	f := make(fields)
	for key, vals := range r.URL.Query() {
		if len(vals) > 0 {
			f[key] = vals[0]
		}
	}
	if r.Body == nil {
		return f, nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
		}
		if len(bytes.TrimSpace(body)) == 0 {
			return f, nil
		}
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
		}
		for k, v := range obj {
			f[k] = v
		}
	case mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data":
		if mediaType == "multipart/form-data" {
			if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
				return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
			}
		} else if err := r.ParseForm(); err != nil {
			return nil, fmt.Errorf("%w: %w", errInvalidBody, err)
		}
		for key, vals := range r.PostForm {
			if len(vals) > 0 {
				f[key] = vals[0]
			}
		}
	}
	return f, nil
}

// bindCreate reads the allow-listed create fields, trimmed of surrounding
// whitespace, reporting type and presence failures the same way
// CreateInput.Validate reports rule failures.
func bindCreate(f fields) (CreateInput, error) {
	verr := &ValidationError{}
	in := CreateInput{
		Status:   f.requiredString(verr, "status"),
		Position: f.requiredString(verr, "position"),
	}
	return in, verr.Err()
}

func (f fields) requiredString(verr *ValidationError, name string) string {
	v, ok := f[name]
	if !ok || v == nil {
		verr.Add(name, requiredMessage(name))
		return ""
	}
	s, ok := v.(string)
	if !ok {
		verr.Add(name, stringMessage(name))
		return ""
	}
	s = strings.TrimSpace(s)
	checkRequiredString(verr, name, s)
	return s
}

// bindPatch reads whichever of user_id, status and position were supplied.
func bindPatch(f fields) (Patch, error) {
	var p Patch
	if v, ok := f["user_id"]; ok {
		id, err := toInt64(v)
		if err != nil {
			return Patch{}, fmt.Errorf("%w: user_id: %w", errInvalidBody, err)
		}
		p.UserID = Some(id)
	}
	for _, name := range []string{"status", "position"} {
		v, ok := f[name]
		if !ok {
			continue
		}
		s, err := toString(v)
		if err != nil {
			return Patch{}, fmt.Errorf("%w: %s: %w", errInvalidBody, name, err)
		}
		if name == "status" {
			p.Status = Some(s)
		} else {
			p.Position = Some(s)
		}
	}
	return p, nil
}

func toInt64(v any) (int64, error) {
	switch t := v.(type) {
	case json.Number:
		return t.Int64()
	case string:
		return strconv.ParseInt(strings.TrimSpace(t), 10, 64)
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}
