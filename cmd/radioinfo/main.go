// Command radioinfo prints a radio's identification block, clock and
// transmit settings.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/sdrkit/looptx/internal/radio"
	"github.com/sdrkit/looptx/internal/timesync"
	"github.com/sdrkit/looptx/radiolink"
)

// dial is swapped out in tests.
var dial = func(ctx context.Context, device, local string, timeout time.Duration) (radio.Radio, error) {
	client, err := radiolink.Dial(ctx, device, radiolink.Options{
		LocalAddress: local,
		Timeout:      timeout,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		return nil, err
	}
	return radio.NewHardware(client), nil
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "radioinfo: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("radioinfo", flag.ContinueOnError)
	device := fs.String("device", "", "radio command address host:port")
	local := fs.String("local", "", "local UDP address to bind")
	timeout := fs.Duration("timeout", radiolink.DefaultTimeout, "command timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *device == "" {
		return fmt.Errorf("device address is required")
	}

	dev, err := dial(ctx, *device, *local, *timeout)
	if err != nil {
		return err
	}
	defer dev.Close()

	printInfo(out, dev.Info())
	return printState(ctx, out, dev)
}

func printInfo(out io.Writer, info radio.Info) {
	fmt.Fprintln(out, "device information:")
	fmt.Fprintf(out, "   device type           %16d\n", info.DeviceType)
	fmt.Fprintf(out, "   FPGA version          %16s\n", info.FPGAVersion)
	fmt.Fprintf(out, "   MCU version           %16s\n", info.MCUVersion)
	fmt.Fprintf(out, "   unique id             %16d\n", info.UniqueID)
	fmt.Fprintf(out, "   packet version        %16s\n", info.PacketVersion)
	fmt.Fprintf(out, "   wire format           %16s\n", info.Format)
	fmt.Fprintf(out, "   sample granularity    %16d\n", info.Format.Granularity)
	fmt.Fprintf(out, "   number of subdevices  %16d\n", info.Subdevices)
	fmt.Fprintf(out, "   max payload bytes     %16d\n", info.MaxPayload)
}

func printState(ctx context.Context, out io.Writer, dev radio.Radio) error {
	now, err := dev.TimeNow(ctx)
	if err != nil {
		return fmt.Errorf("read device time: %w", err)
	}
	bufBytes, err := dev.TxBufferBytes(ctx)
	if err != nil {
		return fmt.Errorf("read buffer info: %w", err)
	}
	rate, err := dev.TxRate(ctx)
	if err != nil {
		return fmt.Errorf("read tx rate: %w", err)
	}
	freq, err := dev.TxFreq(ctx)
	if err != nil {
		return fmt.Errorf("read tx frequency: %w", err)
	}
	gain, err := dev.TxGain(ctx)
	if err != nil {
		return fmt.Errorf("read tx gain: %w", err)
	}
	ports, err := dev.TxPorts(ctx)
	if err != nil {
		return fmt.Errorf("list tx ports: %w", err)
	}

	fmt.Fprintln(out, "device state:")
	fmt.Fprintf(out, "   device time           %s\n", timesync.FormatTime(now))
	fmt.Fprintf(out, "   tx buffer bytes       %16d\n", bufBytes)
	fmt.Fprintln(out, "tx settings:")
	fmt.Fprintf(out, "   current transmit rate %16.3e\n", rate)
	fmt.Fprintf(out, "   current center freq   %16.3e\n", freq)
	fmt.Fprintf(out, "   current transmit gain %16.2f\n", gain)
	fmt.Fprintln(out, "   available transmit ports:")
	for _, p := range ports {
		fmt.Fprintf(out, "                         %16s\n", p)
	}
	return nil
}
