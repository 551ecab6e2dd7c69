package control

// RateLimiter bounds the slew rate of a reference signal. The limit is in
// units of the signal per second.
type RateLimiter struct {
	limit float64
	y     float64
}

func NewRateLimiter(limit float64) *RateLimiter {
	return &RateLimiter{limit: limit}
}

// Apply advances the limiter by one sampling period ts and returns the
// limited value.
func (r *RateLimiter) Apply(ts, u float64) float64 {
	if ts <= 0 {
		return r.y
	}

	rate := (u - r.y) / ts
	switch {
	case rate > r.limit:
		r.y += ts * r.limit
	case rate < -r.limit:
		r.y -= ts * r.limit
	default:
		r.y = u
	}
	return r.y
}

func (r *RateLimiter) Reset() { r.y = 0 }
