package radio

import (
	"fmt"

	"github.com/sdrkit/looptx/radiolink"
)

// Version is a firmware or protocol version packed on the wire as
// major*10000 + minor*100 + patch.
type Version struct {
	Major int
	Minor int
	Patch int
}

func decodeVersion(n uint32) Version {
	return Version{
		Major: int(n / 10000),
		Minor: int(n/100) % 100,
		Patch: int(n % 100),
	}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// WireFormat describes how the device represents samples on the wire.
type WireFormat struct {
	SampleBits  int
	Complex     bool
	Float       bool
	Granularity int // sample counts must be a multiple of this
}

// decodeWireFormat unpacks the hello wire-format word: sample bits in the
// low byte, complex and float flags at bits 8 and 9, granularity in the top
// byte. A device reporting no granularity means one sample.
func decodeWireFormat(n uint32) WireFormat {
	f := WireFormat{
		SampleBits:  int(n % 256),
		Complex:     n&0x100 != 0,
		Float:       n&0x200 != 0,
		Granularity: int(n>>24) & 0xFF,
	}
	if f.Granularity < 1 {
		f.Granularity = 1
	}
	return f
}

func (f WireFormat) String() string {
	kind := "real"
	if f.Complex {
		kind = "cplx"
	}
	base := "int"
	if f.Float {
		base = "flt"
	}
	return fmt.Sprintf("%s %s %d", kind, base, f.SampleBits)
}

// Info is the decoded device identification block.
type Info struct {
	DeviceType    uint32
	FPGAVersion   Version
	MCUVersion    Version
	UniqueID      uint32
	PacketVersion Version
	Format        WireFormat
	Subdevices    int
	MaxPayload    int
}

// DecodeHello interprets the raw hello words.
func DecodeHello(h radiolink.Hello) Info {
	return Info{
		DeviceType:    h.DeviceType,
		FPGAVersion:   decodeVersion(h.FPGAVersion),
		MCUVersion:    decodeVersion(h.MCUVersion),
		UniqueID:      h.UniqueID,
		PacketVersion: decodeVersion(h.PacketVersion),
		Format:        decodeWireFormat(h.WireFormat),
		Subdevices:    int(h.Subdevices),
		MaxPayload:    int(h.MaxPayload),
	}
}
