package bootstrap

import "fmt"

// Stage identifies where a bootstrap run currently is. Stages advance
// strictly in order; Failed is reachable from any non-terminal stage.
type Stage string

const (
	StageConnecting        Stage = "Connecting"
	StageAuthenticating    Stage = "Authenticating"
	StageVerifyingChannel  Stage = "VerifyingChannel"
	StageTransferringAgent Stage = "TransferringAgent"
	StageStartingAgent     Stage = "StartingAgent"
	StageAttached          Stage = "Attached"
	StageFailed            Stage = "Failed"
)

var stageOrder = map[Stage]Stage{
	StageConnecting:        StageAuthenticating,
	StageAuthenticating:    StageVerifyingChannel,
	StageVerifyingChannel:  StageTransferringAgent,
	StageTransferringAgent: StageStartingAgent,
	StageStartingAgent:     StageAttached,
}

// Next returns the stage following s. Terminal stages have no successor.
func (s Stage) Next() (Stage, error) {
	next, ok := stageOrder[s]
	if !ok {
		return s, fmt.Errorf("no stage follows %s", s)
	}
	return next, nil
}

// Terminal reports whether s ends a bootstrap run.
func (s Stage) Terminal() bool {
	return s == StageAttached || s == StageFailed
}
