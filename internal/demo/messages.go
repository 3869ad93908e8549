package demo

// Message is the sealed message type of the application.
type Message interface {
	isMessage()
}

// MathMessage is the sealed message type of the math slice.
type MathMessage interface {
	Message
	isMath()
}

// StringMessage is the sealed message type of the strings slice.
type StringMessage interface {
	Message
	isString()
}

type Increment struct {
	Amount int `json:"amount"`
}

type Decrement struct {
	Amount int `json:"amount"`
}

type Multiply struct {
	Factor int `json:"factor"`
}

// Divide by zero leaves the counter unchanged.
type Divide struct {
	Factor int `json:"factor"`
}

// Noop is published after every Append and changes nothing.
type Noop struct{}

type Append struct {
	Value string `json:"value"`
}

// Augment appends Suffix to every string.
type Augment struct {
	Suffix string `json:"suffix"`
}

func (Increment) isMessage() {}
func (Decrement) isMessage() {}
func (Multiply) isMessage()  {}
func (Divide) isMessage()    {}
func (Noop) isMessage()      {}
func (Append) isMessage()    {}
func (Augment) isMessage()   {}

func (Increment) isMath() {}
func (Decrement) isMath() {}
func (Multiply) isMath()  {}
func (Divide) isMath()    {}

func (Noop) isString()    {}
func (Append) isString()  {}
func (Augment) isString() {}
