package iface

// Backend is an inference engine: one fixed-shape input tensor in,
// one fixed-length output vector out.
type Backend interface {
	Infer(input []float32) ([]float32, error)
	OutputLen() int
	CheckConfig() EngineConfig
	Destroy()
}
