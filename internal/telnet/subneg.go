package telnet

// peerState holds values the peer has told us via subnegotiation —
// distinct from the negotiated option states (Q-method optState), since a
// subnegotiation payload can arrive on an option already Yes without
// re-negotiating it.
type peerState struct {
	width, height int
	termType      string
}

// dispatchSubnegotiation handles a completed `IAC SB <opt> ... IAC SE`
// per spec §4.C. p.sbBuffer holds the payload (not including the option
// byte, which is p.currentOption).
func (p *Processor) dispatchSubnegotiation() ([]byte, error) {
	switch p.currentOption {
	case OptNAWS:
		if len(p.sbBuffer) >= 4 {
			p.peer.width = int(p.sbBuffer[0])<<8 | int(p.sbBuffer[1])
			p.peer.height = int(p.sbBuffer[2])<<8 | int(p.sbBuffer[3])
		}
		return nil, nil

	case OptTermType:
		if len(p.sbBuffer) == 0 {
			return nil, nil
		}
		switch p.sbBuffer[0] {
		case SubSend:
			reply := []byte{IAC, SB, byte(OptTermType), SubIS}
			reply = append(reply, Escape([]byte(p.cfg.TermType))...)
			reply = append(reply, IAC, SE)
			return reply, nil
		case SubIS:
			p.peer.termType = string(p.sbBuffer[1:])
			return nil, nil
		}
		return nil, nil

	case OptLinemode:
		return p.dispatchLinemode()

	case OptNewEnviron:
		return p.dispatchNewEnviron()
	}
	return nil, nil
}

func (p *Processor) dispatchLinemode() ([]byte, error) {
	if len(p.sbBuffer) == 0 {
		return nil, nil
	}
	switch p.sbBuffer[0] {
	case LinemodeModeCmd:
		if len(p.sbBuffer) < 2 {
			return nil, nil
		}
		mode := p.sbBuffer[1]
		ack := mode | LinemodeModeAck
		reply := []byte{IAC, SB, byte(OptLinemode), LinemodeModeCmd, ack, IAC, SE}
		return reply, nil

	case LinemodeForwardMask:
		// Echo the 32-byte mask back for ACK, per spec §4.C.
		mask := p.sbBuffer[1:]
		reply := []byte{IAC, SB, byte(OptLinemode), LinemodeForwardMask}
		reply = append(reply, Escape(mask)...)
		reply = append(reply, IAC, SE)
		return reply, nil

	case LinemodeSLC:
		// Accepted and ignored at design level, except we remember the
		// peer's SUSP character so signal translation can reuse it
		// (see DESIGN.md's Open Question decision on SUSP).
		triples := p.sbBuffer[1:]
		for i := 0; i+2 < len(triples); i += 3 {
			if triples[i] == SLCSusp {
				p.lastSLCSusp = triples[i+2]
				p.haveSLCSusp = true
			}
		}
		return nil, nil
	}
	return nil, nil
}

func (p *Processor) dispatchNewEnviron() ([]byte, error) {
	if len(p.sbBuffer) == 0 {
		return nil, nil
	}
	switch p.sbBuffer[0] {
	case SubSend:
		reply := []byte{IAC, SB, byte(OptNewEnviron), SubIS}
		for k, v := range p.cfg.Env {
			reply = append(reply, EnvVar)
			reply = append(reply, escapeEnv([]byte(k))...)
			reply = append(reply, EnvValue)
			reply = append(reply, escapeEnv([]byte(v))...)
		}
		reply = append(reply, IAC, SE)
		return reply, nil
	}
	return nil, nil
}

// escapeEnv applies the NEW-ENVIRON byte-escaping rule from spec §4.C:
// 0xFF -> 0xFF 0xFF; 0x02 (ESC) -> 0x02 0x02; 0x00/0x01/0x03 -> 0x02 <byte>.
func escapeEnv(buf []byte) []byte {
	out := make([]byte, 0, len(buf))
	for _, b := range buf {
		switch b {
		case 0xFF:
			out = append(out, 0xFF, 0xFF)
		case EnvESC:
			out = append(out, EnvESC, EnvESC)
		case EnvVar, EnvValue, EnvUserVar:
			out = append(out, EnvESC, b)
		default:
			out = append(out, b)
		}
	}
	return out
}

// UpdateWindowSize emits a NAWS subnegotiation carrying (w,h), but only
// once the NAWS option has reached Yes — matching spec §4.C exactly.
func (p *Processor) UpdateWindowSize(w, h int) []byte {
	if !p.StateOf(OptNAWS) {
		return nil
	}
	return []byte{
		IAC, SB, byte(OptNAWS),
		byte(w >> 8), byte(w & 0xFF),
		byte(h >> 8), byte(h & 0xFF),
		IAC, SE,
	}
}

// PeerWindowSize returns the width/height the peer most recently reported
// via NAWS, or (0,0) if none has arrived yet.
func (p *Processor) PeerWindowSize() (int, int) {
	return p.peer.width, p.peer.height
}

// PeerTermType returns the terminal type the peer reported via
// TERMINAL-TYPE IS, or "" if none has arrived.
func (p *Processor) PeerTermType() string {
	return p.peer.termType
}

// InitialNegotiationClient returns the bytes a client-mode session sends
// first: DO SUPPRESS-GA, WILL TERMINAL-TYPE, WILL NAWS, WILL NEW-ENVIRON.
func InitialNegotiationClient() []byte {
	return []byte{
		IAC, DO, byte(OptSuppressGA),
		IAC, WILL, byte(OptTermType),
		IAC, WILL, byte(OptNAWS),
		IAC, WILL, byte(OptNewEnviron),
	}
}

// InitialNegotiationServer returns the bytes a server-mode session sends
// first: WILL ECHO, WILL SUPPRESS-GA, DO TERMINAL-TYPE, DO NAWS,
// DO NEW-ENVIRON.
func InitialNegotiationServer() []byte {
	return []byte{
		IAC, WILL, byte(OptEcho),
		IAC, WILL, byte(OptSuppressGA),
		IAC, DO, byte(OptTermType),
		IAC, DO, byte(OptNAWS),
		IAC, DO, byte(OptNewEnviron),
	}
}

// SendTermTypeRequest assembles IAC SB TERMINAL-TYPE SEND IAC SE, used by
// a client once the peer has agreed WILL TERMINAL-TYPE.
func SendTermTypeRequest() []byte {
	return []byte{IAC, SB, byte(OptTermType), SubSend, IAC, SE}
}
