package delivery

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// FlatFeeProvider charges the same fee for every postcode.
type FlatFeeProvider struct {
	fee decimal.Decimal
}

func NewFlatFeeProvider(fee string) (*FlatFeeProvider, error) {
	d, err := decimal.NewFromString(fee)
	if err != nil {
		return nil, fmt.Errorf("parse delivery fee %q: %w", fee, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("delivery fee must not be negative: %s", fee)
	}
	return &FlatFeeProvider{fee: d}, nil
}

func (p *FlatFeeProvider) GetDeliveryFee(_ context.Context, _ string) (decimal.Decimal, error) {
	return p.fee, nil
}
