package netsim

import "errors"

// ErrInvalidTopology indicates that a topology description references an
// unknown endpoint id, violates a cycle constraint, or is missing a
// required field. It is fatal: the [Simulation] must not start.
var ErrInvalidTopology = errors.New("netsim: invalid topology")

// ErrInvalidSchedule indicates that [EventQueue.Schedule] was asked for a
// negative delay or [EventQueue.ScheduleAt] an absolute time in the past.
// It is fatal and indicates a bug in the caller.
var ErrInvalidSchedule = errors.New("netsim: invalid schedule")

// ErrDuplicateDeviceID indicates that a device id was registered twice.
var ErrDuplicateDeviceID = errors.New("netsim: duplicate device id")

// ErrUnknownDeviceID indicates that a topology referenced a device id that
// was never registered.
var ErrUnknownDeviceID = errors.New("netsim: unknown device id")
