package streamio

import "golang.org/x/crypto/ssh"

// ParseSSHPrivateKey parses a PEM-encoded private key into an ssh.Signer.
// Nothing in zigcat calls it: there is no SSH transport, and the -e/exec
// path uses os/exec and creack/pty directly.
func ParseSSHPrivateKey(pemBytes []byte) (ssh.Signer, error) {
	return ssh.ParsePrivateKey(pemBytes)
}
