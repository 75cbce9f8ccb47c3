// SPDX-License-Identifier: MIT

// Package measure implements the attack-triggered measurement state
// machine of §4.7, the rolling measurement selection of §4.8, and the
// Analyzer that ties the FFT pipeline, peak finder, inharmonicity
// estimator, and f0/B solver together into the control and event
// surface described in §6.
package measure

import "fmt"

// ConfigError reports an invalid control-operation argument (out of
// range MIDI, scale break, sample rate, or frequency). It is returned
// synchronously from the failing control operation; analyzer state is
// left untouched.
type ConfigError struct {
	Op  string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("measure: %s: %s", e.Op, e.Msg)
}

func configError(op, format string, args ...interface{}) error {
	return &ConfigError{Op: op, Msg: fmt.Sprintf(format, args...)}
}
