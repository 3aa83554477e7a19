package render

// RenderConfig holds all configuration options for the render engine.
type RenderConfig struct {
	// MaxRepeat caps the count accepted by the "repeat" template
	// function, so a single call cannot amplify output unboundedly.
	MaxRepeat int

	// MaxJoinParts caps the number of parts accepted by the "join"
	// template function.
	MaxJoinParts int

	// MaxOutputBytes aborts template execution once the rendered
	// output grows beyond this size. A value of 0 disables the limit.
	MaxOutputBytes int
}

// DefaultConfig returns a RenderConfig with safe default values.
func DefaultConfig() *RenderConfig {
	return &RenderConfig{
		MaxRepeat:      1000,
		MaxJoinParts:   1000,
		MaxOutputBytes: 4 * 1024 * 1024, // 4MB
	}
}
