package pricefeed

import apppf "github.com/R3E-Network/service_layer/internal/app/domain/pricefeed"

type (
	Feed        = apppf.Feed
	Snapshot    = apppf.Snapshot
	Round       = apppf.Round
	Observation = apppf.Observation
)
