package telnet

import "github.com/gliderlabs/ssh"

// SessionWindow mirrors the teacher's ssh.Window struct
// (cmd/vision3/main.go's winch channel, internal/telnetserver/adapter.go's
// Pty plumbing) for callers that host zigcat's Telnet processor behind an
// SSH server session instead of a raw TCP listener.
type SessionWindow = ssh.Window

// WindowFromSession extracts the (width, height) pair UpdateWindowSize
// expects from an SSH Pty window-change event.
func WindowFromSession(w SessionWindow) (width, height int) {
	return w.Width, w.Height
}
