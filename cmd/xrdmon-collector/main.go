// Command xrdmon-collector is the long-running binary: it listens for
// XRootD detailed-monitoring UDP traffic, decodes and reorders it,
// resolves it against a correlation store, and forwards the resulting
// events to an optional downstream broker.
package main

import (
	"encoding/json"
	"os"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	xrdmon "github.com/opensciencegrid/xrootd-monitoring-shoveler"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/input"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/mapper"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/transport"
	"github.com/opensciencegrid/xrootd-monitoring-shoveler/wlcg"
)

var (
	version string
	commit  string
)

type options struct {
	Verbose     []bool `short:"v" long:"verbose" description:"Show verbose debug information"`
	Version     bool   `short:"V" long:"version" description:"Print version information"`
	ListenIP    string `long:"listen-ip" description:"Address to listen for UDP monitoring packets on" default:""`
	ListenPort  int    `long:"listen-port" description:"Port to listen for UDP monitoring packets on" default:"9993"`
	Window      int    `long:"window" description:"Reorder buffer width, in packets" default:"8"`
	MetricsPort int    `long:"metrics-port" description:"Port to serve /metrics on, 0 to disable" default:"8000"`
	ConfigFile  string `short:"c" long:"config" description:"Downstream broker config file, if shoveling is enabled"`
	DumpFile    string `long:"dump-file" description:"Append every decoded event as JSON to this file, for debugging without a broker"`
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
		logrus.Infoln("xrdmon-collector", version, commit)
		return
	}

	logger := logrus.New()
	if len(opts.Verbose) > 0 {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}
	xrdmon.SetLogger(logger)
	transport.SetLogger(logger)

	if opts.MetricsPort > 0 {
		xrdmon.StartMetrics(opts.MetricsPort)
	}

	var sink transport.Sink
	var queue *transport.ConfirmationQueue
	if opts.ConfigFile != "" {
		cfg := &transport.Config{}
		viper.SetConfigFile(opts.ConfigFile)
		if err := cfg.ReadConfig(); err != nil {
			logger.WithError(err).Fatal("failed to read downstream transport config")
		}
		s, err := transport.NewSink(cfg)
		if err != nil {
			logger.WithError(err).Fatal("failed to construct downstream sink")
		}
		if s != nil {
			sink = s
			q, err := transport.NewConfirmationQueue(cfg.QueueDirectory)
			if err != nil {
				logger.WithError(err).Fatal("failed to open downstream queue")
			}
			queue = q
			go transport.Pump(queue, sink)
		}
	}

	listener := input.NewUDPListener(opts.ListenIP, opts.ListenPort, 0)
	if err := listener.Start(); err != nil {
		logger.WithError(err).Fatal("failed to start UDP listener")
	}
	defer listener.Stop()

	reordered, err := xrdmon.Stream(input.NewChanReader(listener.Packets()), opts.Window)
	if err != nil {
		logger.WithError(err).Fatal("failed to start reorder stream")
	}

	m := xrdmon.MapStreams(reordered)
	defer m.Stop()

	var dumpFile *xrdmon.FileWriter
	if opts.DumpFile != "" {
		fw, err := xrdmon.NewFileWriter(opts.DumpFile, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to open dump file")
		}
		dumpFile = fw
		defer dumpFile.Close()
	}

	for {
		ev, err := m.Next()
		if err != nil {
			logger.WithError(err).Error("mapper stream ended")
			return
		}
		if dumpFile != nil {
			if b, err := json.Marshal(ev); err != nil {
				logger.WithError(err).Warn("failed to encode event for dump")
			} else if err := dumpFile.Write(b); err != nil {
				logger.WithError(err).Warn("failed to write event to dump file")
			}
		}
		forward(ev, queue, logger)
	}
}

// forward hands a mapped event to the downstream queue: close and transfer
// events that qualify per wlcg.IsWLCGCandidate go out as WLCG JSON,
// everything else goes out as the mapper's own JSON encoding.
func forward(ev mapper.Event, queue *transport.ConfirmationQueue, logger logrus.FieldLogger) {
	if queue == nil {
		return
	}

	var payload []byte
	var err error
	switch e := ev.(type) {
	case mapper.Close:
		if r, ok := wlcg.FromClose(e); ok {
			payload, err = r.ToJSON()
			break
		}
		payload, err = json.Marshal(e)
	case mapper.Transfer:
		if r, ok := wlcg.FromTransfer(e); ok {
			payload, err = r.ToJSON()
			break
		}
		payload, err = json.Marshal(e)
	default:
		payload, err = json.Marshal(e)
	}
	if err != nil {
		logger.WithError(err).Warn("failed to encode event for downstream queue")
		return
	}
	queue.Enqueue(payload)
}
