package led

import (
	"encoding/json"
	"fmt"

	"github.com/jmylchreest/reeflightd/internal/errors"
	"gopkg.in/yaml.v3"
)

// Channel and range limits
const (
	// MaxPower is the full-scale value of a power-domain channel
	MaxPower = 100

	// MaxChannels is the largest channel count a controller accepts
	MaxChannels = 10

	// DefaultDutyMax is the full-scale duty of a 12-bit PWM output
	DefaultDutyMax = 4095

	// SecondsPerDay is the length of the cyclic schedule
	SecondsPerDay = 86400
)

// Color is a power-domain color vector: one 0..100 percentage per channel.
type Color []uint8

// Duties is a duty-domain vector: one 0..DutyMax PWM duty per channel.
type Duties []uint16

// Uniform returns a color with every one of n channels set to p.
func Uniform(n int, p uint8) Color {
	c := make(Color, n)
	for i := range c {
		c[i] = p
	}
	return c
}

// Off returns an all-zero color with n channels.
func Off(n int) Color {
	return make(Color, n)
}

// Validate checks that c has exactly channels elements, each within [0, MaxPower].
func (c Color) Validate(channels int) error {
	if len(c) != channels {
		return errors.InvalidInputf("color has %d channels, expected %d", len(c), channels)
	}
	for i, p := range c {
		if p > MaxPower {
			return errors.InvalidInputf("channel %d power %d out of range [0,%d]", i, p, MaxPower)
		}
	}
	return nil
}

// Clone returns an independent copy of c.
func (c Color) Clone() Color {
	if c == nil {
		return nil
	}
	out := make(Color, len(c))
	copy(out, c)
	return out
}

// Equal reports whether c and o hold the same values.
func (c Color) Equal(o Color) bool {
	if len(c) != len(o) {
		return false
	}
	for i := range c {
		if c[i] != o[i] {
			return false
		}
	}
	return true
}

// Ints returns c as a slice of int, the representation used on the wire.
func (c Color) Ints() []int {
	out := make([]int, len(c))
	for i, p := range c {
		out[i] = int(p)
	}
	return out
}

// ColorFromInts converts a wire representation into a Color, rejecting
// values that do not fit the power domain.
func ColorFromInts(values []int) (Color, error) {
	c := make(Color, len(values))
	for i, v := range values {
		if v < 0 || v > MaxPower {
			return nil, errors.InvalidInputf("channel %d power %d out of range [0,%d]", i, v, MaxPower)
		}
		c[i] = uint8(v)
	}
	return c, nil
}

// MarshalJSON encodes the color as a list of numbers instead of base64.
func (c Color) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	return json.Marshal(c.Ints())
}

// UnmarshalJSON decodes a list of numbers.
func (c *Color) UnmarshalJSON(data []byte) error {
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	if values == nil {
		*c = nil
		return nil
	}
	decoded, err := ColorFromInts(values)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// MarshalYAML encodes the color as a flow sequence of numbers.
func (c Color) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, p := range c {
		node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(p)})
	}
	return node, nil
}

// UnmarshalYAML decodes a sequence of numbers.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	var values []int
	if err := value.Decode(&values); err != nil {
		return err
	}
	decoded, err := ColorFromInts(values)
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

// Ints returns d as a slice of int.
func (d Duties) Ints() []int {
	out := make([]int, len(d))
	for i, v := range d {
		out[i] = int(v)
	}
	return out
}
