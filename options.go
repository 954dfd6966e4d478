package labelmesh

import (
	"github.com/gogpu/labelmesh/atlas"
	"github.com/gogpu/labelmesh/style"
	"github.com/gogpu/labelmesh/text"
)

// Option configures a Scene during creation.
//
// Example:
//
//	scene := labelmesh.NewScene(
//	    labelmesh.WithWorkers(4),
//	    labelmesh.WithUploader(uploader),
//	)
type Option func(*sceneOptions)

type sceneOptions struct {
	workers    int
	fontOpts   []text.Option
	uploader   atlas.Uploader
	rules      []style.Rule
	collisions bool
}

func defaultOptions() sceneOptions {
	return sceneOptions{
		collisions: true,
	}
}

// WithWorkers sets the number of tile workers. Zero or negative means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *sceneOptions) {
		o.workers = n
	}
}

// WithFontOptions passes options to the scene's text.FontContext.
func WithFontOptions(opts ...text.Option) Option {
	return func(o *sceneOptions) {
		o.fontOpts = append(o.fontOpts, opts...)
	}
}

// WithUploader sets where Frame uploads dirty atlas pages. Without an
// uploader pages are only marked clean, which suits headless use.
func WithUploader(up atlas.Uploader) Option {
	return func(o *sceneOptions) {
		o.uploader = up
	}
}

// WithRules sets the initial label rules.
func WithRules(rules ...style.Rule) Option {
	return func(o *sceneOptions) {
		o.rules = append(o.rules, rules...)
	}
}

// WithCollisions enables or disables dropping labels that overlap a label
// placed before them. Enabled by default.
func WithCollisions(enabled bool) Option {
	return func(o *sceneOptions) {
		o.collisions = enabled
	}
}
