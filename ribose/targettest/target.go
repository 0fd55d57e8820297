// Package targettest is a minimal in-memory Target implementation used
// by the ribose package's own engine tests: it contributes no
// effectors beyond the built-in prefix, so any transducer compiled
// against target class "test" can bind to it.
package targettest

import "github.com/jrte/ribose-sub001/ribose"

// Target is the bare-bones ribose.Target every engine self-test binds
// its transductors to.
type Target struct{}

func (Target) TargetClass() string { return "test" }

func (Target) Effectors() []ribose.Effector { return nil }
