// command icmdctl reads out and configures an iC-MD quadrature counter
// connected to an SPI port.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/trappitsch/ic-md/icmd"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "icmdctl: %v\n", err)
		os.Exit(2)
	}
}

var (
	spiPort  = flag.String("spi", "", "SPI port name, empty for the first available")
	mode     = flag.Int("mode", int(icmd.Cnt1x48), "counter mode (0-7)")
	ccw      = flag.Bool("ccw", false, "count up on counterclockwise rotation")
	interval = flag.Duration("interval", 100*time.Millisecond, "monitor poll interval")
	nerrPin  = flag.String("nerr", "", "GPIO name of the NERR pin to watch while monitoring")
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `usage: icmdctl [flags] command

Commands:
  read     latch and print the counter values once
  monitor  poll and print the counter values until interrupted
  reset    zero all counters
  ref      print the reference counter
  status   print the status registers

Flags:
`)
	flag.PrintDefaults()
}

func run() error {
	log.SetFlags(log.Flags() &^ (log.Ldate | log.Ltime))
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	if *mode < 0 || *mode > 7 {
		return fmt.Errorf("invalid mode %d", *mode)
	}

	if _, err := host.Init(); err != nil {
		return err
	}
	p, err := spireg.Open(*spiPort)
	if err != nil {
		return err
	}
	defer p.Close()
	dev, err := icmd.NewSPI(p)
	if err != nil {
		return err
	}
	cfg := icmd.Config{Mode: icmd.Mode(*mode)}
	if *ccw {
		for i := range cfg.Setups {
			cfg.Setups[i].Direction = icmd.CCW
		}
	}
	if err := dev.Configure(cfg); err != nil {
		return err
	}

	switch cmd := flag.Arg(0); cmd {
	case "read":
		return printReading(dev)
	case "monitor":
		return monitor(dev)
	case "reset":
		return dev.ResetAllCounters()
	case "ref":
		v, err := dev.ReadReference()
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	case "status":
		return printStatus(dev)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printReading(dev *icmd.Dev) error {
	r, err := dev.ReadCounter()
	if err != nil {
		return err
	}
	for i, c := range r.Counts {
		fmt.Printf("counter %d: %d\n", i, c)
	}
	if r.Warn {
		log.Print("warning flagged, see status")
	}
	if r.Err {
		log.Print("error flagged, see status")
	}
	return nil
}

func monitor(dev *icmd.Dev) error {
	if *nerrPin != "" {
		pin := gpioreg.ByName(*nerrPin)
		if pin == nil {
			return fmt.Errorf("no GPIO named %q", *nerrPin)
		}
		if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return err
		}
		go func() {
			for {
				if pin.WaitForEdge(-1) && pin.Read() == gpio.Low {
					log.Print("NERR asserted")
				}
			}
		}()
	}
	for range time.Tick(*interval) {
		r, err := dev.ReadCounter()
		if err != nil {
			return err
		}
		line := ""
		for i, c := range r.Counts {
			if i > 0 {
				line += "  "
			}
			line += fmt.Sprintf("cnt%d=%d", i, c)
		}
		if r.Warn || r.Err {
			line += fmt.Sprintf("  warn=%t err=%t", r.Warn, r.Err)
		}
		log.Print(line)
	}
	return nil
}

func printStatus(dev *icmd.Dev) error {
	n := dev.Mode().Counters()
	for i := 0; i < n; i++ {
		s, err := dev.Status(i)
		if err != nil {
			return err
		}
		fmt.Printf("counter %d: %+v\n", i, s)
	}
	return nil
}
