package atlas

// Option configures a Store.
type Option func(*config)

type config struct {
	maxPages  int
	sdfRadius float64
}

func defaultConfig() config {
	return config{
		maxPages: MaxPages,
	}
}

// WithMaxPages limits the number of live pages. Values outside
// [1, MaxPages] are ignored.
func WithMaxPages(n int) Option {
	return func(c *config) {
		if n >= 1 && n <= MaxPages {
			c.maxPages = n
		}
	}
}

// WithSDFRadius converts every inserted glyph into a signed distance field
// with the given radius in texels. Zero keeps raw coverage.
func WithSDFRadius(r float64) Option {
	return func(c *config) {
		if r >= 0 {
			c.sdfRadius = r
		}
	}
}
