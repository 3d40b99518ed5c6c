package reveal_article

import (
	"context"
	"log/slog"
	"strings"

	"github.com/wuyiadepoju/paywall/internal/app/content"
	"github.com/wuyiadepoju/paywall/internal/app/subscription/contracts"
)

// Result is what the rendering layer may show a reader
type Result struct {
	FreeBlocks        []content.Block `json:"freeBlocks"`
	PremiumBlocks     []content.Block `json:"premiumBlocks"`
	HasPremiumContent bool            `json:"hasPremiumContent"`
	// Locked is set when premium content exists but is withheld
	Locked bool `json:"locked"`
}

// Interactor splits an article and withholds its premium part from readers
// without an entitlement.
type Interactor struct {
	gate   contracts.EntitlementChecker
	logger *slog.Logger
}

func NewInteractor(gate contracts.EntitlementChecker, logger *slog.Logger) *Interactor {
	return &Interactor{
		gate:   gate,
		logger: logger.With("module", "reveal_article"),
	}
}

// Execute reveals blocks to userID. An empty userID is an anonymous reader.
func (i *Interactor) Execute(ctx context.Context, userID string, blocks []content.Block) (*Result, error) {
	split, err := content.Split(blocks)
	if err != nil {
		return nil, err
	}

	result := &Result{
		FreeBlocks:        split.FreeBlocks,
		PremiumBlocks:     []content.Block{},
		HasPremiumContent: split.HasPremiumContent,
	}
	if !split.HasPremiumContent {
		return result, nil
	}

	entitled := false
	if userID = strings.TrimSpace(userID); userID != "" {
		// the gate only errors on a blank id, which is excluded above
		entitled, err = i.gate.IsEntitled(ctx, userID)
		if err != nil {
			i.logger.WarnContext(ctx, "entitlement check rejected", "user_id", userID, "error", err)
			entitled = false
		}
	}

	if entitled {
		result.PremiumBlocks = split.PremiumBlocks
	} else {
		result.Locked = true
	}
	return result, nil
}
