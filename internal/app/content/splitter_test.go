package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func para(id string) Block {
	return Block{ID: id, Kind: "paragraph"}
}

func divider(id string) Block {
	return Block{ID: id, Kind: KindSeparator}
}

func TestSplit(t *testing.T) {
	testCases := []struct {
		name        string
		blocks      []Block
		wantFree    []Block
		wantPremium []Block
		wantHas     bool
	}{
		{
			name:        "no separator",
			blocks:      []Block{para("a"), para("b")},
			wantFree:    []Block{para("a"), para("b")},
			wantPremium: []Block{},
		},
		{
			name:        "empty article",
			blocks:      []Block{},
			wantFree:    []Block{},
			wantPremium: []Block{},
		},
		{
			name:        "separator in the middle",
			blocks:      []Block{para("a"), divider("d"), para("b"), para("c")},
			wantFree:    []Block{para("a")},
			wantPremium: []Block{para("b"), para("c")},
			wantHas:     true,
		},
		{
			name:        "later separators stay in premium",
			blocks:      []Block{para("a"), divider("d1"), para("b"), divider("d2"), para("c")},
			wantFree:    []Block{para("a")},
			wantPremium: []Block{para("b"), divider("d2"), para("c")},
			wantHas:     true,
		},
		{
			name:        "leading separator",
			blocks:      []Block{divider("d"), para("a")},
			wantFree:    []Block{},
			wantPremium: []Block{para("a")},
			wantHas:     true,
		},
		{
			name:        "trailing separator",
			blocks:      []Block{para("a"), divider("d")},
			wantFree:    []Block{para("a")},
			wantPremium: []Block{},
			wantHas:     true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result, err := Split(tc.blocks)

			require.NoError(t, err)
			assert.Equal(t, tc.wantFree, result.FreeBlocks)
			assert.Equal(t, tc.wantPremium, result.PremiumBlocks)
			assert.Equal(t, tc.wantHas, result.HasPremiumContent)
		})
	}
}

func TestSplit_Nil(t *testing.T) {
	_, err := Split(nil)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSplit_DoesNotMutateOrAlias(t *testing.T) {
	blocks := []Block{para("a"), divider("d"), para("b")}
	original := append([]Block(nil), blocks...)

	first, err := Split(blocks)
	require.NoError(t, err)
	second, err := Split(blocks)
	require.NoError(t, err)

	assert.Equal(t, original, blocks)
	assert.Equal(t, first, second)

	first.FreeBlocks[0] = para("changed")
	first.PremiumBlocks[0] = para("changed")
	assert.Equal(t, original, blocks)
}

func TestBlock_JSONRoundTripKeepsRawPayload(t *testing.T) {
	raw := `[{"id":"b1","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"hi"}]}},{"id":"b2","type":"divider","divider":{}}]`

	var blocks []Block
	require.NoError(t, json.Unmarshal([]byte(raw), &blocks))
	require.Len(t, blocks, 2)
	assert.Equal(t, "paragraph", blocks[0].Kind)
	assert.True(t, blocks[1].IsSeparator())

	result, err := Split(blocks)
	require.NoError(t, err)
	out, err := json.Marshal(result.FreeBlocks)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"b1","type":"paragraph","paragraph":{"rich_text":[{"plain_text":"hi"}]}}]`, string(out))
}

func TestBlock_UnmarshalRequiresType(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"id":"b1"}`), &b)

	assert.ErrorIs(t, err, ErrInvalidArgument)
}
