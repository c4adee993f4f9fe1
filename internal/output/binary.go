package output

import (
	"bytes"
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"io"
)

// WriteBinary writes rec as a gzip-compressed gob stream.
func WriteBinary(w io.Writer, rec *Record) error {
	gz := gzip.NewWriter(w)
	if err := gob.NewEncoder(gz).Encode(rec); err != nil {
		gz.Close()
		return err
	}
	return gz.Close()
}

// ReadBinary decodes a record written by WriteBinary.
func ReadBinary(r io.Reader) (*Record, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	var rec Record
	if err := gob.NewDecoder(gz).Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}
	return &rec, nil
}

// EncodeBlob compresses rec into a byte slice.
func EncodeBlob(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteBinary(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeBlob decodes a byte slice produced by EncodeBlob.
func DecodeBlob(blob []byte) (*Record, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("empty record blob")
	}
	return ReadBinary(bytes.NewReader(blob))
}
