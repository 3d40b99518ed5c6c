package content

import "fmt"

// SplitResult is an article cut at its first separator
type SplitResult struct {
	FreeBlocks        []Block `json:"freeBlocks"`
	PremiumBlocks     []Block `json:"premiumBlocks"`
	HasPremiumContent bool    `json:"hasPremiumContent"`
}

// Split partitions blocks at the first separator, which is dropped. Later
// separators stay inside PremiumBlocks. Without a separator the whole article
// is free. The input is never modified and the result never aliases it.
func Split(blocks []Block) (SplitResult, error) {
	if blocks == nil {
		return SplitResult{}, fmt.Errorf("%w: blocks must be a sequence, got nil", ErrInvalidArgument)
	}

	cut := -1
	for i, b := range blocks {
		if b.IsSeparator() {
			cut = i
			break
		}
	}

	if cut < 0 {
		return SplitResult{
			FreeBlocks:    clone(blocks),
			PremiumBlocks: []Block{},
		}, nil
	}
	return SplitResult{
		FreeBlocks:        clone(blocks[:cut]),
		PremiumBlocks:     clone(blocks[cut+1:]),
		HasPremiumContent: true,
	}, nil
}

func clone(blocks []Block) []Block {
	out := make([]Block, len(blocks))
	copy(out, blocks)
	return out
}
