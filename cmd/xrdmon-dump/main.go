// Command xrdmon-dump pretty-prints an XRootD detailed-monitoring stream
// read from a file or a UDP socket, for interactively inspecting a feed
// without standing up a collector.
package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/pterm/pterm"
	"github.com/sirupsen/logrus"

	xrdmon "github.com/opensciencegrid/xrootd-monitoring-shoveler"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/correlate"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/input"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/mapper"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wire"
)

var (
	version string
	commit  string
)

// selectorNames are the keywords the pretty-printer accepts, matching the
// reference tool's family selectors. An empty selection (the default)
// prints every family.
var selectorNames = map[string]bool{
	"packet": true,
	"redir":  true,
	"fstat":  true,
	"fstats": true,
	"traces": true,
	"server": true,
	"plugin": true,
}

type options struct {
	Verbose []bool   `short:"v" long:"verbose" description:"Show verbose debug information"`
	Version bool     `short:"V" long:"version" description:"Print version information"`
	Window  int      `long:"window" description:"Reorder buffer width, in packets" default:"8"`
	Select  []string `long:"select" description:"Limit output to these families: packet, redir, fstat, fstats, traces, server, plugin (default: all)"`
	Capture bool     `long:"capture" description:"Read SOURCE as a newline-delimited JSON capture file (remote/version/data per line) instead of a raw packet dump"`

	Args struct {
		Source string `positional-arg-name:"SOURCE" description:"file path, or UDP address:port, to read the monitor stream from"`
	} `positional-args:"yes" required:"yes"`
}

// parseSelectors validates opts.Select against selectorNames and returns the
// active set. An unrecognized selector is a fatal usage error. No selectors
// given means select everything.
func parseSelectors(selected []string) (map[string]bool, error) {
	if len(selected) == 0 {
		out := make(map[string]bool, len(selectorNames))
		for name := range selectorNames {
			out[name] = true
		}
		return out, nil
	}
	out := make(map[string]bool, len(selected))
	for _, s := range selected {
		if !selectorNames[s] {
			return nil, fmt.Errorf("unknown selector %q (valid: packet, redir, fstat, fstats, traces, server, plugin)", s)
		}
		out[s] = true
	}
	return out, nil
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}
	if opts.Version {
		fmt.Println("xrdmon-dump", version, commit)
		return
	}

	selectors, err := parseSelectors(opts.Select)
	if err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}

	logger := logrus.New()
	if len(opts.Verbose) > 0 {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
	xrdmon.SetLogger(logger)

	source, closeSource, err := openSource(opts.Args.Source, opts.Capture)
	if err != nil {
		pterm.Error.Println("failed to open", opts.Args.Source, ":", err)
		os.Exit(1)
	}
	defer closeSource()

	reordered, err := xrdmon.Stream(source, opts.Window)
	if err != nil {
		pterm.Error.Println("failed to start reorder stream:", err)
		os.Exit(1)
	}
	m := xrdmon.MapStreams(reordered)
	defer m.Stop()

	for {
		ev, err := m.Next()
		if err != nil {
			if err == wire.ErrSourceExhausted {
				return
			}
			pterm.Error.Println("stream ended:", err)
			return
		}
		printEvent(ev, selectors)
	}
}

// openSource accepts either a "host:port" UDP address or a file system
// path. A file path is read as a raw packet dump unless capture is set, in
// which case it is treated as a newline-delimited JSON capture (one
// base64-encoded packet per line, as written by a shoveler-side packet
// logger).
func openSource(spec string, capture bool) (io.Reader, func(), error) {
	if host, port, ok := strings.Cut(spec, ":"); ok && port != "" {
		addr := net.UDPAddr{IP: net.ParseIP(host), Port: mustAtoi(port)}
		conn, err := net.ListenUDP("udp", &addr)
		if err != nil {
			return nil, nil, err
		}
		return conn, func() { conn.Close() }, nil
	}
	if capture {
		fr := input.NewFileReader(spec, true)
		if err := fr.Start(); err != nil {
			return nil, nil, err
		}
		return input.NewChanReader(fr.Packets()), func() { fr.Stop() }, nil
	}
	f, err := os.Open(spec)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func mustAtoi(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func timeRange(start, end int32) string {
	s := time.Unix(int64(start), 0)
	e := time.Unix(int64(end), 0)
	return fmt.Sprintf("%s %s-%s", s.Format("2006-01-02"), s.Format("15:04:05"), e.Format("15:04:05"))
}

func siteID(server correlate.ServerInfo) string {
	return fmt.Sprintf("%s via %s@%s:%d", server.Site, server.Instance, server.Host, server.Port)
}

func redirActionName(a wire.RedirAction) string {
	if a == wire.RedirActionXrootd {
		return "Xrootd"
	}
	return "Cmsd"
}

func prettyClient(client *wire.UserId) string {
	if client == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s@%s(%d) [%s]", client.Username, client.Host, client.Pid, client.Protocol)
}

// eventFamily names the selector keyword an event belongs to, for the
// "packet" selector's catch-all trace line.
func eventFamily(ev mapper.Event) string {
	switch ev.(type) {
	case mapper.ServerIdentity, mapper.UserIdentity, mapper.AccessIdentity:
		return "server"
	case mapper.RedirWindow:
		return "redir"
	case mapper.FstatWindow:
		return "fstat"
	case mapper.TraceWindow:
		return "traces"
	case mapper.PluginRecord:
		return "plugin"
	default:
		return "?"
	}
}

func printEvent(ev mapper.Event, selectors map[string]bool) {
	if selectors["packet"] {
		pterm.Info.Printfln("packet: %T (%s)", ev, eventFamily(ev))
	}
	switch e := ev.(type) {
	case mapper.ServerIdentity:
		if selectors["server"] {
			pterm.Info.Println("Server:", siteID(e.Info))
		}
	case mapper.UserIdentity:
		if selectors["server"] {
			pterm.Info.Println("User:", prettyClient(&e.Info.Client))
			if e.Info.Auth.DN != "" {
				fmt.Println("      dn:", e.Info.Auth.DN, "org:", e.Info.Auth.Organization)
			}
		}
	case mapper.AccessIdentity:
		if selectors["server"] {
			pterm.Info.Println("Access:", string(e.Info.Path))
			fmt.Println("      ", prettyClient(e.Info.Client))
		}
	case mapper.RedirWindow:
		if !selectors["redir"] {
			return
		}
		pterm.Info.Println("Redir:", siteID(e.Server), "["+timeRange(e.Start, e.End)+"]")
		for idx, inner := range e.Events {
			r, ok := inner.(mapper.Redirection)
			if !ok {
				continue
			}
			fmt.Printf("  %3d: %s %s:%d/%s\n", idx, redirActionName(r.Action), string(r.Target), r.Port, string(r.Path))
			fmt.Println("      ", prettyClient(&r.Client))
		}
	case mapper.FstatWindow:
		if !selectors["fstat"] {
			return
		}
		pterm.Info.Println("FStat:", siteID(e.Server), "["+timeRange(e.Start, e.End)+"]")
		if !selectors["fstats"] {
			return
		}
		for idx, inner := range e.Events {
			printFstatRecord(idx, inner)
		}
	case mapper.TraceWindow:
		if !selectors["traces"] {
			return
		}
		pterm.Info.Println("Trace:", siteID(e.Server), "["+timeRange(e.Start, e.End)+"]")
		for idx, inner := range e.Events {
			printFstatRecord(idx, inner)
		}
	case mapper.PluginRecord:
		if !selectors["plugin"] {
			return
		}
		pterm.Info.Println("Plugin:", string(e.Provider), "["+timeRange(e.TBeg, e.TEnd)+"]")
		for idx, line := range e.Lines {
			fmt.Printf("  %3d: %v\n", idx, line.Fields)
		}
	}
}

func printFstatRecord(idx int, ev mapper.Event) {
	switch r := ev.(type) {
	case mapper.Transfer:
		fmt.Printf("  %3d: %-10s %s (r=%d rv=%d w=%d)\n", idx, "Transfer", string(r.Lfn), r.Read, r.Readv, r.Write)
		fmt.Println("      ", prettyClient(r.Client))
	case mapper.Open:
		fmt.Printf("  %3d: %-10s %s\n", idx, "Open", string(r.Lfn))
		fmt.Println("      ", prettyClient(r.Client))
	case mapper.Close:
		fmt.Printf("  %3d: %-10s %s\n", idx, "Close", string(r.Lfn))
		fmt.Println("      ", prettyClient(r.Client))
	case mapper.Disconnect:
		fmt.Printf("  %3d: %-10s\n", idx, "Disconnect")
		fmt.Println("      ", prettyClient(&r.Client))
	case mapper.ReadWriteEvent:
		fmt.Printf("  %3d: %-10s %s\n", idx, "ReadWrite", string(r.Lfn))
		fmt.Println("      ", prettyClient(r.Client))
	}
}
