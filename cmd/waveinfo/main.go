// Command waveinfo summarizes a waveform file: sample statistics and the
// strongest spectral component.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sdrkit/looptx/internal/waveform"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "waveinfo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("waveinfo", flag.ContinueOnError)
	rate := fs.Float64("rate", 1e6, "sample rate for duration and frequency readouts, S/s")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: waveinfo [-rate hz] <waveform-file>")
	}

	w, err := waveform.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(w) == 0 {
		return fmt.Errorf("waveform file holds no samples")
	}

	stats := waveform.Analyze(w)
	spectrum := waveform.Spectrum(w)
	peak := waveform.PeakBin(spectrum)

	fmt.Fprintf(out, "file                 %s\n", fs.Arg(0))
	fmt.Fprintf(out, "samples              %d\n", stats.Samples)
	fmt.Fprintf(out, "duration             %v at %g S/s\n", w.Duration(*rate), *rate)
	fmt.Fprintf(out, "peak magnitude       %.4f of full scale\n", stats.PeakMagnitude)
	fmt.Fprintf(out, "mean power           %.2f dBFS\n", stats.PowerDBFS)
	fmt.Fprintf(out, "dc offset            i %.5f, q %.5f\n", stats.MeanI, stats.MeanQ)
	fmt.Fprintf(out, "strongest component  %+.1f Hz at %.2f dBFS\n",
		waveform.BinFrequency(peak, len(spectrum), *rate), spectrum[peak])
	return nil
}
