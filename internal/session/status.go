// internal/session/status.go
package session

import "github.com/breathlab/respire/internal/signal"

// Status is the read-only live-state surface consumed by rendering and
// session collaborators. It is a value snapshot; mutating it has no effect
// on the processor.
type Status struct {
	SessionID             string                     `json:"sessionId"`
	IsConnected           bool                       `json:"isConnected"`
	BreathAmplitude       float64                    `json:"breathAmplitude"`
	BreathPhase           string                     `json:"breathPhase"`
	BreathingRate         float64                    `json:"breathingRate"`
	DeviceBreathingRate   *float64                   `json:"deviceBreathingRate"`
	IsCalibrating         bool                       `json:"isCalibrating"`
	CalibrationProgress   float64                    `json:"calibrationProgress"`
	CalibrationProfile    *signal.CalibrationProfile `json:"calibrationProfile"`
	CurrentForce          float64                    `json:"currentForce"`
	SessionElapsedSeconds int                        `json:"sessionElapsedSeconds"`
}
