package subscriber

import "realtime-srv/internal/envelope"

// input is anything the run loop reacts to.
type input interface{ isInput() }

type authChanged struct{ authenticated bool }

type fetchPurpose int

const (
	purposeConnect fetchPurpose = iota
	purposeRefresh
	purposeRetry
)

func (p fetchPurpose) String() string {
	switch p {
	case purposeConnect:
		return "connect"
	case purposeRefresh:
		return "refresh"
	default:
		return "retry"
	}
}

type fetchResult struct {
	purpose fetchPurpose
	cred    Credential
	err     error
}

type transportOpened struct{ id uint64 }

type transportFrame struct {
	id  uint64
	env envelope.Envelope
}

type transportFailed struct {
	id  uint64
	err error
}

type timerKind int

const (
	timerReconnect timerKind = iota
	timerRefresh
)

func (k timerKind) String() string {
	if k == timerReconnect {
		return "reconnect"
	}
	return "refresh"
}

type timerFired struct {
	kind timerKind
	gen  uint64
}

func (authChanged) isInput()     {}
func (fetchResult) isInput()     {}
func (transportOpened) isInput() {}
func (transportFrame) isInput()  {}
func (transportFailed) isInput() {}
func (timerFired) isInput()      {}
