package content

import (
	"encoding/json"
	"errors"
	"fmt"
)

// KindSeparator is the block kind marking the free/premium boundary
const KindSeparator = "divider"

var ErrInvalidArgument = errors.New("invalid argument")

// Block is one opaque unit of article content as delivered by the CMS.
// Only the kind is interpreted; the original JSON is carried through untouched.
type Block struct {
	ID   string
	Kind string
	Raw  json.RawMessage
}

// IsSeparator reports whether b cuts the article into free and premium parts
func (b Block) IsSeparator() bool {
	return b.Kind == KindSeparator
}

type blockHeader struct {
	ID   string `json:"id,omitempty"`
	Kind string `json:"type"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var h blockHeader
	if err := json.Unmarshal(data, &h); err != nil {
		return fmt.Errorf("decode block: %w", err)
	}
	if h.Kind == "" {
		return fmt.Errorf("%w: block %q has no type", ErrInvalidArgument, h.ID)
	}
	b.ID = h.ID
	b.Kind = h.Kind
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	return json.Marshal(blockHeader{ID: b.ID, Kind: b.Kind})
}
