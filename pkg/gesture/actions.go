package gesture

import (
	"github.com/felixgeelhaar/statekit"

	"github.com/menta2k/image-cropper/pkg/geometry"
	"github.com/menta2k/image-cropper/pkg/types"
)

// beginGesture classifies the pointer-down position and records the anchor
func beginGesture(ctx **Context, event statekit.Event) {
	c := *ctx
	p, ok := event.Payload.(types.Point)
	if !ok {
		return
	}
	hit := c.surface.HitTest(p)
	c.active = &Gesture{
		Hit:    hit,
		Anchor: geometry.Anchor{Point: p, Bounds: c.surface.Bounds()},
		Last:   p,
	}
	c.logger.Debug().
		Str("mode", hit.String()).
		Float64("x", p.X).
		Float64("y", p.Y).
		Msg("gesture started")
}

// trackGesture applies the delta since the anchor to the crop bounds
func trackGesture(ctx **Context, event statekit.Event) {
	c := *ctx
	p, ok := event.Payload.(types.Point)
	if !ok || c.active == nil {
		return
	}
	g := c.active
	dx, dy := p.Sub(g.Anchor.Point)
	bounds := c.surface.Apply(g.Hit, g.Anchor, dx, dy)
	g.Last = p
	g.Moves++

	if c.options.OnChange != nil {
		c.options.OnChange(bounds)
	}
}

// finishGesture finalizes the bounds and notifies the owner
func finishGesture(ctx **Context, _ statekit.Event) {
	c := *ctx
	if c.active == nil {
		return
	}
	g := *c.active
	c.active = nil
	bounds := c.surface.Bounds()

	c.logger.Debug().
		Str("mode", g.Hit.String()).
		Int("moves", g.Moves).
		Str("bounds", bounds.String()).
		Msg("gesture completed")

	if c.options.OnComplete != nil {
		c.options.OnComplete(bounds, g)
	}
}

// abortGesture discards the in-flight gesture
func abortGesture(ctx **Context, _ statekit.Event) {
	c := *ctx
	if c.active != nil {
		c.logger.Debug().Str("mode", c.active.Hit.String()).Msg("gesture aborted")
	}
	c.active = nil
}

// guardImageSet gates all gesture input on a placed image
func guardImageSet(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && ctx.surface != nil && ctx.surface.IsPlaced()
}

// guardPastThreshold ignores micro-motion right after pointer-down
func guardPastThreshold(ctx *Context, event statekit.Event) bool {
	if ctx == nil || ctx.active == nil {
		return false
	}
	p, ok := event.Payload.(types.Point)
	if !ok {
		return false
	}
	return p.Dist(ctx.active.Anchor.Point) > ctx.threshold
}
