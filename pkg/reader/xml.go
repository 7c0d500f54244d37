package reader

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/aisflow/aisflow/pkg/parse"
	"github.com/aisflow/aisflow/pkg/schema"
)

// XMLReader streams tagged-markup files. Field values accumulate by tag
// name until the record-terminator element closes, at which point the
// record is emitted and a fresh accumulator started. Tags outside the
// schema mapping are ignored; fields absent from a record stay missing
// (the parser treats a missing key as empty text).
type XMLReader struct{}

// NewXMLReader creates a tagged-markup reader.
func NewXMLReader() *XMLReader { return &XMLReader{} }

// Name implements Reader.
func (x *XMLReader) Name() string { return "xml" }

// Read implements Reader.
func (x *XMLReader) Read(ctx context.Context, r io.Reader, out chan<- parse.RawRecord) error {
	dec := xml.NewDecoder(r)

	current := make(parse.RawRecord)
	var text strings.Builder
	for {
		select {
		case <-ctx.Done():
			return ErrContextCanceled
		default:
		}

		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("decode markup: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			text.Reset()
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			name := t.Name.Local
			if name == schema.RecordTag {
				if err := emit(ctx, out, current); err != nil {
					return err
				}
				current = make(parse.RawRecord)
				break
			}
			if col, ok := schema.XMLTags[name]; ok {
				if v := text.String(); v != "" {
					current[col] = v
				}
			}
			text.Reset()
		}
	}
}
