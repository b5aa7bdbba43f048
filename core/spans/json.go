package spans

import (
	"encoding/json"
	"io"
)

// MarshalJSON encodes the index as a JSON array of records.
func (x *Index) MarshalJSON() ([]byte, error) {
	records := x.Records()
	if records == nil {
		records = []*Record{}
	}
	return json.Marshal(records)
}

// UnmarshalJSON decodes a JSON array of records.
func (x *Index) UnmarshalJSON(data []byte) error {
	var records []*Record
	if err := json.Unmarshal(data, &records); err != nil {
		return err
	}
	x.records = x.records[:0]
	for _, r := range records {
		x.AddRecord(r)
	}
	return nil
}

// Document is the JSON interchange form used by the CLI: the records of
// one annotation set plus document metadata.
type Document struct {
	Set      string    `json:"set,omitempty"`
	Metadata *Features `json:"metadata,omitempty"`
	Records  *Index    `json:"records"`
}

// ReadDocument decodes a Document from r.
func ReadDocument(r io.Reader) (*Document, error) {
	doc := &Document{Records: NewIndex()}
	if err := json.NewDecoder(r).Decode(doc); err != nil {
		return nil, err
	}
	if doc.Records == nil {
		doc.Records = NewIndex()
	}
	return doc, nil
}

// WriteDocument encodes doc to w, indented.
func WriteDocument(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
