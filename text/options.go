package text

// Option configures a FontContext.
type Option func(*config)

type config struct {
	loader     ResourceLoader
	shaper     Shaper
	sdfRadius  float64
	maxPages   int
	root       string
	cacheLimit int
}

func defaultConfig() config {
	return config{
		sdfRadius:  3,
		cacheLimit: 64,
	}
}

// WithLoader sets the resource loader. The default is DefaultLoader().
func WithLoader(l ResourceLoader) Option {
	return func(c *config) {
		c.loader = l
	}
}

// WithShaper replaces the go-text shaper.
func WithShaper(s Shaper) Option {
	return func(c *config) {
		c.shaper = s
	}
}

// WithSDFRadius sets the distance field spread in pixels. Zero stores raw
// coverage. Glyphs are padded by the radius rounded up.
func WithSDFRadius(r float64) Option {
	return func(c *config) {
		if r >= 0 {
			c.sdfRadius = r
		}
	}
}

// WithMaxPages limits the number of atlas pages.
func WithMaxPages(n int) Option {
	return func(c *config) {
		c.maxPages = n
	}
}

// WithResourceRoot sets the base relative font URIs are resolved against.
func WithResourceRoot(root string) Option {
	return func(c *config) {
		c.root = root
	}
}

// WithFontCacheSize sets how many font handles are cached.
func WithFontCacheSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.cacheLimit = n
		}
	}
}
