package api

// API limits and constants.
const (
	// MaxUploadSize caps recording uploads. A 30 minute side at
	// 96kHz/24-bit stereo is around 1 GB; leave headroom above that.
	MaxUploadSize = 2 << 30
)

// Cache-Control header values.
const (
	CacheOneWeek = "public, max-age=604800"
	CacheOneDay  = "public, max-age=86400"
	CacheNoStore = "no-cache"
)
