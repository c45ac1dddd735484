package internal

import (
	"github.com/apex/log"

	"github.com/virtclock/netsim"
)

// ApexLogger adapts github.com/apex/log's package-level logger to
// [netsim.Logger].
type ApexLogger struct {
	Verbose bool
}

var _ netsim.Logger = &ApexLogger{}

// Debug implements netsim.Logger.
func (l *ApexLogger) Debug(message string) {
	if l.Verbose {
		log.Debug(message)
	}
}

// Debugf implements netsim.Logger.
func (l *ApexLogger) Debugf(format string, v ...any) {
	if l.Verbose {
		log.Debugf(format, v...)
	}
}

// Info implements netsim.Logger.
func (l *ApexLogger) Info(message string) {
	if l.Verbose {
		log.Info(message)
	}
}

// Infof implements netsim.Logger.
func (l *ApexLogger) Infof(format string, v ...any) {
	if l.Verbose {
		log.Infof(format, v...)
	}
}

// Warn implements netsim.Logger. Warnings always print: they flag
// dropped packets and routing anomalies a caller should see regardless
// of verbosity — expected runtime conditions that are logged rather than
// raised, but still worth surfacing by default.
func (l *ApexLogger) Warn(message string) {
	log.Warn(message)
}

// Warnf implements netsim.Logger.
func (l *ApexLogger) Warnf(format string, v ...any) {
	log.Warnf(format, v...)
}
