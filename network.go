package deepdream

// Network is a fixed, differentiable feature extractor. Any implementation
// that exposes named activations and can propagate a gradient from one of
// them back to its input can drive a dream.
type Network interface {
	// Forward evaluates the network on x. Implementations must not retain
	// or modify x after Forward returns.
	Forward(x *Tensor) (Pass, error)
}

// Pass is the record of one forward evaluation.
type Pass interface {
	// Activation returns the named intermediate output.
	Activation(name string) (*Tensor, bool)
	// Names lists the activations in evaluation order.
	Names() []string
	// Backward returns the gradient with respect to the network input,
	// given the gradient of some scalar with respect to the named
	// activation.
	Backward(name string, grad *Tensor) (*Tensor, error)
}
