package telnet

import "fmt"

// State is the Telnet byte-level parser's current state (spec §3/§4.C).
type State int

const (
	StateData State = iota
	StateIac
	StateWill
	StateWont
	StateDo
	StateDont
	StateSb
	StateSbData
	StateSbIac
)

// optState is the per-option Q-method state (RFC 1143).
type optState int

const (
	optNo optState = iota
	optYes
	optWantNo
	optWantYes
)

const (
	maxSBBuffer      = 1024
	maxPartialBuffer = 16
	maxAttempts      = 10
)

// Config is the set of negotiation parameters a processor is built with —
// the terminal type string, advertised window, and the configured
// NEW-ENVIRON variable/value pairs.
type Config struct {
	TermType string
	Width    int
	Height   int
	Env      map[string]string
}

// Processor is the Telnet byte-level state machine: IAC parsing, Q-method
// negotiation, subnegotiation dispatch, and IAC escaping on the write
// path. It holds no reference to any Stream — the TelnetStream decorator
// in stream.go owns that composition, per spec §9's cyclic-lifetime note.
type Processor struct {
	state State

	optionState         map[Option]optState
	negotiationAttempts map[Option]int

	sbBuffer      []byte
	partialBuffer []byte
	currentOption Option

	cfg  Config
	peer peerState

	// lastSLCSusp records the peer's negotiated SUSP character from the
	// last LINEMODE SLC triple seen, for the signal-translation path.
	lastSLCSusp byte
	haveSLCSusp bool
}

// New creates a Processor with every option initially No, as per spec §3.
func New(cfg Config) *Processor {
	return &Processor{
		state:                StateData,
		optionState:          make(map[Option]optState),
		negotiationAttempts:  make(map[Option]int),
		sbBuffer:              make([]byte, 0, 64),
		partialBuffer:         make([]byte, 0, maxPartialBuffer),
		cfg:                   cfg,
	}
}

func (p *Processor) stateOf(opt Option) optState {
	return p.optionState[opt]
}

func (p *Processor) setState(opt Option, s optState) {
	p.optionState[opt] = s
}

// Result is what Process returns for one input chunk.
type Result struct {
	// App is application data with IAC fully stripped/unescaped — safe
	// to hand to stdout, the output sink, and the hex dumper.
	App []byte
	// Reply is bytes that must be written back to the peer before any
	// further read proceeds (spec §4.B's "Telnet reply ordering").
	Reply []byte
}

// Process feeds one chunk of bytes received from the peer through the
// state machine. Because the processor's state (state, sbBuffer,
// currentOption) is held on p and survives across calls, an input chunk
// that ends mid-sequence simply resumes on the next call exactly where it
// left off — there is no separate byte buffer to reassemble. partialBuffer
// is allocated with the maxPartialBuffer capacity but Process never
// stores bytes in it, so ErrBufferOverflow is never returned: the carry
// across chunks is the parser state alone.
func (p *Processor) Process(data []byte) (Result, error) {
	var res Result
	i := 0
	for i < len(data) {
		b := data[i]
		i++

		switch p.state {
		case StateData:
			if b == IAC {
				p.state = StateIac
			} else {
				res.App = append(res.App, b)
			}

		case StateIac:
			switch {
			case b == IAC:
				res.App = append(res.App, 0xFF)
				p.state = StateData
			case b == WILL:
				p.state = StateWill
			case b == WONT:
				p.state = StateWont
			case b == DO:
				p.state = StateDo
			case b == DONT:
				p.state = StateDont
			case b == SB:
				p.state = StateSb
			case isSimpleCommand(b):
				p.state = StateData
				// One-shot commands execute here; the engine has no
				// further action to take for NOP/DM/BRK/AO/AYT/EC/EL/GA
				// at the processor level (signal translation, when
				// enabled, is an outbound-only concern — see signal.go).
				_ = b
			default:
				return res, fmt.Errorf("%w: IAC 0x%02x", ErrInvalidCommand, b)
			}

		case StateWill, StateWont, StateDo, StateDont:
			opt := Option(b)
			reply, err := p.negotiate(p.state, opt)
			if err != nil {
				return res, err
			}
			res.Reply = append(res.Reply, reply...)
			p.state = StateData

		case StateSb:
			p.currentOption = Option(b)
			p.sbBuffer = p.sbBuffer[:0]
			p.state = StateSbData

		case StateSbData:
			if b == IAC {
				p.state = StateSbIac
			} else {
				if len(p.sbBuffer) >= maxSBBuffer {
					return res, ErrSubnegotiationTooLong
				}
				p.sbBuffer = append(p.sbBuffer, b)
			}

		case StateSbIac:
			switch b {
			case SE:
				reply, err := p.dispatchSubnegotiation()
				if err != nil {
					return res, err
				}
				res.Reply = append(res.Reply, reply...)
				p.state = StateData
			case IAC:
				if len(p.sbBuffer) >= maxSBBuffer {
					return res, ErrSubnegotiationTooLong
				}
				p.sbBuffer = append(p.sbBuffer, IAC)
				p.state = StateSbData
			default:
				return res, fmt.Errorf("%w: IAC 0x%02x inside subnegotiation", ErrMalformedSequence, b)
			}
		}
	}

	return res, nil
}

// negotiate implements the Q-method table from spec §4.C.
func (p *Processor) negotiate(cmdState State, opt Option) ([]byte, error) {
	p.negotiationAttempts[opt]++
	if p.negotiationAttempts[opt] > maxAttempts {
		return nil, ErrNegotiationLoop
	}

	if !Supported(opt) {
		switch cmdState {
		case StateWill:
			return p.sendCommand(DONT, opt), nil
		case StateDo:
			return p.sendCommand(WONT, opt), nil
		default: // WONT/DONT in response to something we never offered
			return nil, nil
		}
	}

	cur := p.stateOf(opt)
	switch cmdState {
	case StateWill:
		switch cur {
		case optNo:
			p.setState(opt, optYes)
			return p.sendCommand(DO, opt), nil
		case optWantNo, optWantYes:
			p.setState(opt, optYes)
			return nil, nil
		case optYes:
			return nil, nil // idempotent
		}
	case StateDo:
		switch cur {
		case optNo:
			p.setState(opt, optYes)
			reply := p.sendCommand(WILL, opt)
			if opt == OptNAWS {
				// Report our current window immediately, matching spec
				// §8 scenario 2 (DO NAWS -> WILL NAWS, then NAWS SB).
				reply = append(reply, p.UpdateWindowSize(p.cfg.Width, p.cfg.Height)...)
			}
			return reply, nil
		case optWantNo, optWantYes:
			p.setState(opt, optYes)
			return nil, nil
		case optYes:
			return nil, nil
		}
	case StateWont:
		switch cur {
		case optYes:
			p.setState(opt, optNo)
			return p.sendCommand(DONT, opt), nil
		case optWantNo, optWantYes:
			p.setState(opt, optNo)
			return nil, nil
		case optNo:
			return nil, nil
		}
	case StateDont:
		switch cur {
		case optYes:
			p.setState(opt, optNo)
			return p.sendCommand(WONT, opt), nil
		case optWantNo, optWantYes:
			p.setState(opt, optNo)
			return nil, nil
		case optNo:
			return nil, nil
		}
	}
	return nil, fmt.Errorf("%w: option %d in state %v", ErrInvalidStateTransition, opt, cmdState)
}

// sendCommand assembles IAC <cmd> <opt>.
func (p *Processor) sendCommand(cmd byte, opt Option) []byte {
	return []byte{IAC, cmd, byte(opt)}
}

// Escape applies the write-path IAC escaping invariant: every 0xFF in buf
// becomes 0xFF 0xFF; every other byte passes through unchanged.
func Escape(buf []byte) []byte {
	n := 0
	for _, b := range buf {
		if b == 0xFF {
			n++
		}
	}
	if n == 0 {
		return buf
	}
	out := make([]byte, 0, len(buf)+n)
	for _, b := range buf {
		if b == 0xFF {
			out = append(out, 0xFF, 0xFF)
		} else {
			out = append(out, b)
		}
	}
	return out
}

// StateOf exposes an option's negotiated state for tests and for the
// maintenance callback (NAWS is only sent once state is Yes).
func (p *Processor) StateOf(opt Option) bool {
	return p.stateOf(opt) == optYes
}
