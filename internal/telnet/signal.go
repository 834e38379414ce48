package telnet

// Signal translation converts local Ctrl-C/Ctrl-Z key events into Telnet
// bytes for the peer, per spec §4.C's maintenance callback. See
// DESIGN.md's Open Question decision: RFC 1184 has no simple IAC command
// for SUSP, so Ctrl-Z is sent as a LINEMODE SLC triple (when LINEMODE has
// been negotiated) rather than a fabricated simple command.

// InterruptBytes returns the bytes to send for a Ctrl-C (interrupt)
// signal: a bare IAC IP, matching spec §4.C exactly.
func InterruptBytes() []byte {
	return []byte{IAC, IP}
}

// SuspendBytes returns the bytes to send for a Ctrl-Z (suspend) signal.
// If LINEMODE has never been negotiated (state != Yes), there is no
// SLC SUSP function byte to carry the signal on, and the signal is
// silently dropped (nil, false) rather than inventing a wire form RFC
// 1184 doesn't define outside LINEMODE.
func (p *Processor) SuspendBytes() ([]byte, bool) {
	if !p.StateOf(OptLinemode) {
		return nil, false
	}
	susp := p.lastSLCSusp
	if !p.haveSLCSusp {
		// RFC 1184 default SUSP character is Ctrl-Z (0x1A) when the
		// peer never sent an explicit SLC triple for it.
		susp = 0x1A
	}
	// SLC triple: function, modifier (VALUE|DEFAULT, 0x02), value.
	const slcValueDefault = 0x02
	return []byte{
		IAC, SB, byte(OptLinemode), LinemodeSLC,
		SLCSusp, slcValueDefault, susp,
		IAC, SE,
	}, true
}
