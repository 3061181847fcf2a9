package main

import (
	"context"

	"aquariumd/internal/advice"
	"aquariumd/internal/bridge"
	"aquariumd/pkg/types"
)

// adviceTee serves advice and mirrors each successful tip to the cloud
// bridge's advice pin.
type adviceTee struct {
	client *advice.Client
	bridge *bridge.Publisher
}

func (t adviceTee) Advise(ctx context.Context, snap types.Snapshot) (string, error) {
	tip, err := t.client.Advise(ctx, snap)
	if err != nil {
		return "", err
	}
	t.bridge.SetAdvice(tip)
	return tip, nil
}
