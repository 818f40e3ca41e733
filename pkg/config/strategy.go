package config

import (
	"cmp"
	"math/rand/v2"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/ddlayout/pkg/layered"
)

// BuildOrdering chains the configured ordering strategies left to right.
// Random orderings draw from a PCG source seeded with Seed, so a given
// configuration always yields the same layout.
func BuildOrdering(c LayoutConfig) layered.LayerOrdering {
	stages := make([]layered.LayerOrdering, 0, len(c.Ordering))
	for i, name := range c.Ordering {
		switch name {
		case OrderingIdentity:
			stages = append(stages, layered.Identity{})
		case OrderingRandom:
			stages = append(stages, layered.Random{
				SwapsPerNode: c.SwapsPerNode,
				Rand:         rand.New(rand.NewPCG(c.Seed, uint64(i))),
			})
		case OrderingBarycenter:
			stages = append(stages, layered.Barycenter{Passes: c.Passes})
		case OrderingSwap:
			stages = append(stages, layered.AdjacentSwap{Passes: c.Passes * 2})
		}
	}
	return layered.Chain(stages...)
}

// BuildPositioning returns the configured positioning strategy.
func BuildPositioning(c LayoutConfig) layered.LayerPositioning {
	if c.Positioning == PositioningCentered {
		return layered.Centered{Spacing: c.Spacing}
	}
	return layered.Basic{}
}

// BuildLayout assembles the layered layout strategy described by c.
func BuildLayout[T cmp.Ordered](c LayoutConfig, logger *log.Logger) layered.Layout[T] {
	return layered.Layout[T]{
		Ordering:    BuildOrdering(c),
		Positioning: BuildPositioning(c),
		Duration:    c.Duration,
		Logger:      logger,
	}
}
