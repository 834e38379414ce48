// Command zigcat is a netcat-compatible relay: it connects or listens on
// a transport, then shuttles bytes between that stream and stdin/stdout
// through the transfer engine, optionally decorating the stream with
// Telnet option negotiation.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/stlalpha/zigcat/internal/lineeditor"
	"github.com/stlalpha/zigcat/internal/netcfg"
	"github.com/stlalpha/zigcat/internal/sinks"
	"github.com/stlalpha/zigcat/internal/stream"
	"github.com/stlalpha/zigcat/internal/streamio"
	"github.com/stlalpha/zigcat/internal/telnet"
	"github.com/stlalpha/zigcat/internal/transfer"
	"github.com/stlalpha/zigcat/internal/ttyutil"
	"github.com/stlalpha/zigcat/internal/zlog"
)

var (
	listen   bool
	udp      bool
	unixSock bool
	portFlag int
	execCmd  string

	sendOnly   bool
	recvOnly   bool
	crlf       bool
	delayMS    int
	idleMS     int
	closeOnEOF bool
	noShutdown bool
	hexDump    bool
	cp437      bool

	telnetEnabled  bool
	telnetEditMode bool
	telnetSignals  bool
	termType       string
	winWidth       int
	winHeight      int

	outputPath    string
	outputAppend  bool
	hexDumpPath   string
	hexDumpAppend bool
	flushCron     string

	verbose  bool
	vverbose bool
)

func init() {
	flag.BoolVar(&listen, "l", false, "listen for an incoming connection instead of dialing out")
	flag.BoolVar(&udp, "u", false, "use UDP instead of TCP")
	flag.BoolVar(&unixSock, "unix", false, "treat the host argument as a Unix domain socket path")
	flag.IntVar(&portFlag, "p", 0, "port to dial or listen on (alternative to trailing host port)")
	flag.StringVar(&execCmd, "e", "", "execute this command and relay to its stdio instead of stdin/stdout")

	flag.BoolVar(&sendOnly, "send-only", false, "relay stdin to the stream only, never the stream to stdout")
	flag.BoolVar(&recvOnly, "recv-only", false, "relay the stream to stdout only, never stdin to the stream")
	flag.BoolVar(&crlf, "crlf", false, "convert LF to CRLF on the send path")
	flag.IntVar(&delayMS, "delay-ms", 0, "sleep this many milliseconds after each send")
	flag.IntVar(&idleMS, "idle-timeout", 0, "idle timeout in milliseconds (0 = platform/TTY default)")
	flag.BoolVar(&closeOnEOF, "close-on-eof", false, "terminate as soon as stdin reaches EOF")
	flag.BoolVar(&noShutdown, "no-shutdown", false, "suppress the half-close of the stream's write side on stdin EOF")
	flag.BoolVar(&hexDump, "hex-dump", false, "format received bytes as a hex dump on stdout instead of writing them raw")
	flag.BoolVar(&cp437, "cp437", false, "translate between CP437 and UTF-8 at the stdin/stdout boundary for legacy BBS peers")

	flag.BoolVar(&telnetEnabled, "telnet", false, "negotiate and strip Telnet IAC sequences")
	flag.BoolVar(&telnetEditMode, "telnet-edit", false, "enable local cooked-mode line editing (implies synchronous stdin handling)")
	flag.BoolVar(&telnetSignals, "telnet-signal-translate", false, "translate local Ctrl-C/Ctrl-Z into Telnet signal bytes")
	flag.StringVar(&termType, "term", "xterm", "terminal type advertised to TERMINAL-TYPE negotiation")
	flag.IntVar(&winWidth, "width", 80, "window width advertised to NAWS negotiation")
	flag.IntVar(&winHeight, "height", 24, "window height advertised to NAWS negotiation")

	flag.StringVar(&outputPath, "output", "", "write every byte received from the stream to this file")
	flag.BoolVar(&outputAppend, "output-append", false, "append to -output instead of truncating it")
	flag.StringVar(&hexDumpPath, "hex-dump-file", "", "write the hex-dump formatted bytes to this file (stdout shows the dump only with -hex-dump)")
	flag.BoolVar(&hexDumpAppend, "hex-dump-append", false, "append to -hex-dump-file instead of truncating it")
	flag.StringVar(&flushCron, "flush-cron", "", "cron(5) expression for a periodic sink flush; empty disables it")

	flag.BoolVar(&verbose, "v", false, "log a startup line (INFO, WARN and ERROR lines are always logged)")
	flag.BoolVar(&vverbose, "vv", false, "enable DEBUG-level logging")
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if vverbose {
		zlog.SetVerbose(true)
		verbose = true
	}
	if verbose {
		zlog.Info("zigcat starting")
	}

	st, err := openTransport(flag.Args())
	if err != nil {
		zlog.Error("%v", err)
		os.Exit(1)
	}
	defer st.Close()

	cfg := buildConfig()

	peer, events := maybeWrapTelnet(st, cfg)
	defer func() {
		if events != nil {
			events.Stop()
		}
	}()

	outSink, hexSink, sched := openSinks(cfg)
	defer func() {
		if sched != nil {
			sched.Stop()
		}
	}()

	opts := []transfer.Option{}
	if conn, ok := peer.(*telnet.Conn); ok {
		opts = append(opts, transfer.WithTelnet(conn))
	}
	if outSink != nil {
		opts = append(opts, transfer.WithOutputSink(outSink))
	}
	if hexSink != nil {
		opts = append(opts, transfer.WithHexSink(hexSink))
	}

	localEditActive := telnetEditMode && ttyutil.IsTerminal(os.Stdin)
	if localEditActive {
		// The editor does its own echo, so the TTY must not echo or
		// line-buffer for it.
		rawState, err := ttyutil.MakeRaw(os.Stdin)
		if err != nil {
			zlog.Warn("switching stdin to raw mode failed: %v", err)
		} else {
			defer ttyutil.Restore(rawState)
		}
		opts = append(opts, transfer.WithLocalEdit(lineeditor.CRLFMode(crlf)))
	}

	session := transfer.New(cfg, st, os.Stdin, os.Stdout, opts...)

	if err := session.Run(localEditActive); err != nil && err != transfer.ErrIdleTimeout {
		zlog.Error("session %s ended with error: %v", session.ID, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [options] host port\n       %s -l [options] port\n\n", os.Args[0], os.Args[0])
	flag.PrintDefaults()
}

// openTransport dials or listens for exactly one connection, per spec §1's
// "no multiplexing inside a single session" — a listener accepts once and
// serves that connection for the process lifetime.
func openTransport(args []string) (stream.Stream, error) {
	if execCmd != "" {
		return startExecStream()
	}

	network, addr, err := resolveEndpoint(args)
	if err != nil {
		return nil, err
	}

	if listen {
		ln, err := net.Listen(listenNetwork(network), addr)
		if err != nil {
			return nil, fmt.Errorf("listen %s %s: %w", network, addr, err)
		}
		defer ln.Close()
		zlog.Info("listening on %s %s", network, addr)
		return stream.Accept(network, ln)
	}
	return stream.Dial(network, addr)
}

func listenNetwork(network string) string {
	if network == "udp" {
		return "udp"
	}
	if network == "unix" {
		return "unix"
	}
	return "tcp"
}

// resolveEndpoint turns the positional args plus -u/-unix/-p into a
// net.Dial-shaped (network, address) pair.
func resolveEndpoint(args []string) (network, addr string, err error) {
	if unixSock {
		if len(args) < 1 {
			return "", "", fmt.Errorf("zigcat -unix requires a socket path argument")
		}
		return "unix", args[0], nil
	}

	network = "tcp"
	if udp {
		network = "udp"
	}

	host, port := "", portFlag
	switch len(args) {
	case 2:
		host = args[0]
		p, perr := strconv.Atoi(args[1])
		if perr != nil {
			return "", "", fmt.Errorf("invalid port %q: %w", args[1], perr)
		}
		port = p
	case 1:
		if port == 0 {
			p, perr := strconv.Atoi(args[0])
			if perr == nil {
				port = p
				host = ""
			} else {
				host = args[0]
			}
		} else {
			host = args[0]
		}
	case 0:
		if port == 0 {
			return "", "", fmt.Errorf("zigcat requires a host/port (or -l -p port to listen)")
		}
	default:
		return "", "", fmt.Errorf("too many positional arguments: %v", args)
	}
	if port == 0 {
		return "", "", fmt.Errorf("zigcat requires a port")
	}
	return network, net.JoinHostPort(host, strconv.Itoa(port)), nil
}

func startExecStream() (stream.Stream, error) {
	parts := strings.Fields(execCmd)
	if len(parts) == 0 {
		return nil, fmt.Errorf("zigcat -e requires a non-empty command")
	}
	cmd := exec.Command(parts[0], parts[1:]...)
	if ttyutil.IsTerminal(os.Stdin) {
		es, err := streamio.StartPTY(cmd, winWidth, winHeight)
		if err != nil {
			return nil, err
		}
		return es, nil
	}
	es, err := streamio.StartPipe(cmd)
	if err != nil {
		return nil, err
	}
	return es, nil
}

// buildConfig gathers every flag into netcfg.Config, the CLI collaborator's
// output struct, then copies the fields the engine observes onto
// transfer.Config, resolving the effective idle timeout on the way.
func buildConfig() transfer.Config {
	nc := &netcfg.Config{
		SendOnly:              sendOnly,
		RecvOnly:              recvOnly,
		CRLF:                  crlf,
		DelayMS:               delayMS,
		IdleTimeout:           time.Duration(idleMS) * time.Millisecond,
		CloseOnEOF:            closeOnEOF,
		NoShutdown:            noShutdown,
		HexDump:               hexDump,
		CP437:                 cp437,
		Telnet:                telnetEnabled,
		TelnetEditMode:        telnetEditMode,
		TelnetSignalTranslate: telnetSignals,
		TermType:              termType,
		WinWidth:              winWidth,
		WinHeight:             winHeight,
		OutputPath:            outputPath,
		OutputAppend:          outputAppend,
		HexDumpPath:           hexDumpPath,
		HexDumpAppend:         hexDumpAppend,
		FlushCron:             flushCron,
	}

	return transfer.Config{
		SendOnly:    nc.SendOnly,
		RecvOnly:    nc.RecvOnly,
		CRLF:        nc.CRLF,
		DelayMS:     nc.DelayMS,
		IdleTimeout: nc.IdleTimeoutFor(ttyutil.IsTerminal(os.Stdin), runtime.GOOS == "windows"),
		CloseOnEOF:  nc.CloseOnEOF,
		NoShutdown:  nc.NoShutdown,
		HexDump:     nc.HexDump,
		CP437:       nc.CP437,
	}
}

// maybeWrapTelnet decorates st with a telnet.Conn when -telnet is set,
// returning the peer Stream the engine should talk to (either st itself
// or the Telnet decorator) along with the platform event source so main
// can Stop() it on exit.
func maybeWrapTelnet(st stream.Stream, cfg transfer.Config) (peer stream.Stream, events *ttyutil.PlatformEvents) {
	if !telnetEnabled {
		return st, nil
	}

	events = ttyutil.NewPlatformEvents()
	tcfg := telnet.Config{TermType: termType, Width: winWidth, Height: winHeight}
	conn := telnet.Wrap(st, tcfg, resizeAdapter{events}, signalAdapter{events}, telnetSignals)
	if err := conn.SendRaw(telnet.InitialNegotiationClient()); err != nil {
		zlog.Warn("sending initial telnet negotiation failed: %v", err)
	}
	return conn, events
}

// resizeAdapter/signalAdapter convert ttyutil.PlatformEvents' plain-int
// signal kind into telnet.SignalKind, keeping ttyutil from importing
// internal/telnet (see internal/ttyutil/events_unix.go).
type resizeAdapter struct{ e *ttyutil.PlatformEvents }

func (r resizeAdapter) DrainResize() (int, int, bool) { return r.e.DrainResize() }

type signalAdapter struct{ e *ttyutil.PlatformEvents }

func (s signalAdapter) DrainSignal() (telnet.SignalKind, bool) {
	kind, ok := s.e.DrainSignal()
	return telnet.SignalKind(kind), ok
}

func openSinks(cfg transfer.Config) (*sinks.OutputSink, *sinks.HexSink, *sinks.FlushScheduler) {
	var out *sinks.OutputSink
	var hex *sinks.HexSink

	if outputPath != "" {
		s, err := sinks.OpenOutputSink(outputPath, outputAppend)
		if err != nil {
			zlog.Warn("opening output sink: %v", err)
		} else {
			out = s
		}
	}
	if cfg.HexDump || hexDumpPath != "" {
		s, err := sinks.OpenHexSink(hexDumpPath, hexDumpAppend)
		if err != nil {
			zlog.Warn("opening hex-dump sink: %v", err)
		} else {
			hex = s
		}
	}

	var flushers []sinks.Flusher
	if out != nil {
		flushers = append(flushers, out)
	}
	if hex != nil {
		flushers = append(flushers, hex)
	}
	sched, err := sinks.NewFlushScheduler(flushCron, flushers...)
	if err != nil {
		zlog.Warn("flush-cron schedule rejected: %v", err)
		sched = nil
	}

	if sched != nil {
		if out != nil && outputPath != "" {
			if err := sched.WatchParentDir(outputPath, func(string) {
				if err := out.Reopen(); err != nil {
					zlog.Warn("reopening output sink after directory change: %v", err)
				}
			}); err != nil {
				zlog.Warn("watching output sink directory: %v", err)
			}
		}
		if hex != nil && hexDumpPath != "" {
			if err := sched.WatchParentDir(hexDumpPath, func(string) {
				if err := hex.Reopen(); err != nil {
					zlog.Warn("reopening hex-dump sink after directory change: %v", err)
				}
			}); err != nil {
				zlog.Warn("watching hex-dump sink directory: %v", err)
			}
		}
	}

	return out, hex, sched
}
