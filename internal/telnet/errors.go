package telnet

import "errors"

// Protocol/state errors (spec §7). All are fatal to the session: the
// engine logs, flushes sinks, and returns.
var (
	ErrInvalidCommand        = errors.New("telnet: invalid command")
	ErrInvalidOption         = errors.New("telnet: invalid option")
	ErrMalformedSequence     = errors.New("telnet: malformed sequence")
	ErrInvalidStateTransition = errors.New("telnet: invalid state transition")
	ErrSubnegotiationTooLong = errors.New("telnet: subnegotiation too long")
	ErrBufferOverflow        = errors.New("telnet: partial-IAC buffer overflow")
	ErrNegotiationLoop       = errors.New("telnet: negotiation loop")
)
