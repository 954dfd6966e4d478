package style

import (
	"context"
	"errors"

	"github.com/gogpu/labelmesh/internal/logger"
	"github.com/gogpu/labelmesh/label"
	"github.com/gogpu/labelmesh/text"
)

// TileLabels is the label output of one tile.
type TileLabels struct {
	Labels *label.TextLabels
	// Incomplete is set when some labels were skipped because their font
	// was still loading; the tile should be built again once it is ready.
	Incomplete bool
	Skipped    int
}

// Builder builds the labels of tiles. It is safe for concurrent use when
// its Layouter is.
type Builder struct {
	layouter   label.Layouter
	rules      []Rule
	strategies map[GeometryType]Strategy
}

// NewBuilder creates a builder with the default strategies.
func NewBuilder(l label.Layouter, rules ...Rule) *Builder {
	return &Builder{
		layouter:   l,
		rules:      rules,
		strategies: DefaultStrategies(),
	}
}

// SetStrategy replaces the strategy of a geometry type.
func (b *Builder) SetStrategy(g GeometryType, s Strategy) {
	b.strategies[g] = s
}

// Rules returns the builder's rules.
func (b *Builder) Rules() []Rule { return b.rules }

// Build labels features with every matching rule. Features without text or
// placeable geometry are skipped. Build stops early, returning ctx.Err(),
// when ctx is canceled; the partial labels are released through r.
func (b *Builder) Build(ctx context.Context, features []Feature, r label.AtlasReleaser) (*TileLabels, error) {
	out := &TileLabels{Labels: label.NewTextLabels()}
	for i := range features {
		if err := ctx.Err(); err != nil {
			out.Labels.Release(r)
			return nil, err
		}
		f := &features[i]
		for j := range b.rules {
			rule := &b.rules[j]
			if !rule.Matches(f) {
				continue
			}
			if !b.buildOne(out, rule, f) {
				out.Skipped++
			}
		}
	}
	return out, nil
}

func (b *Builder) buildOne(out *TileLabels, rule *Rule, f *Feature) bool {
	s := rule.textOf(f)
	if s == "" {
		return false
	}
	strategy, ok := b.strategies[f.Type]
	if !ok {
		return false
	}
	place, ok := strategy(f.Points)
	if !ok {
		return false
	}

	quads, dim, err := out.Labels.AddText(b.layouter, rule.Text, s)
	if err != nil {
		if errors.Is(err, text.ErrFontNotReady) {
			out.Incomplete = true
		} else {
			logger.L().Debug("style: label skipped", "rule", rule.Name, "text", s, "err", err)
		}
		return false
	}

	switch place.Type {
	case label.TypeLine:
		out.Labels.AddLineLabel(quads, dim, place.Path, rule.Label)
	default:
		out.Labels.AddPointLabel(quads, dim, place.Pos, rule.Label)
	}
	return true
}
