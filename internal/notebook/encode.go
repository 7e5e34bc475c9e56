package notebook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func writeObject(buf *bytes.Buffer, fields *Fields) error {
	buf.WriteByte('{')
	if fields != nil {
		first := true
		for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := writeMember(buf, pair.Key, pair.Value); err != nil {
				return err
			}
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeMember(buf *bytes.Buffer, key string, value json.RawMessage) error {
	if err := writeString(buf, key); err != nil {
		return err
	}
	buf.WriteByte(':')
	if len(bytes.TrimSpace(value)) == 0 {
		buf.WriteString("null")
		return nil
	}
	buf.Write(value)
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

// rawValue encodes plain JSON values built by this package (strings, string
// slices, nil, nested Fields). It panics on values json cannot encode.
func rawValue(v any) json.RawMessage {
	var buf bytes.Buffer
	if fields, ok := v.(*Fields); ok {
		if err := writeObject(&buf, fields); err != nil {
			panic(fmt.Sprintf("notebook: encode fields: %v", err))
		}
		return compact(buf.Bytes())
	}
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		panic(fmt.Sprintf("notebook: encode %T: %v", v, err))
	}
	return json.RawMessage(bytes.TrimRight(buf.Bytes(), "\n"))
}

func compact(data []byte) json.RawMessage {
	var out bytes.Buffer
	if err := json.Compact(&out, data); err != nil {
		return json.RawMessage(data)
	}
	return json.RawMessage(out.Bytes())
}

// atomicWriteFile writes content to a temp file in the same directory and
// renames it over path.
func atomicWriteFile(path string, content []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	tmp, err := os.CreateTemp(dir, base+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
