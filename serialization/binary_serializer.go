package serialization

import (
	"fmt"
	"math"

	"github.com/funvibe/funbit/pkg/funbit"

	"templecode/turtle"
)

// Binary drawing layout, all multi-byte fields big-endian:
//
//	magic "TCDR" u32 | version u8
//	x, y, heading f64 | pen down u8 | pen color 3*u8 | pen width f64
//	visible u8 | background 3*u8 | clears u32 | segment count u32
//	count * (x1, y1, x2, y2 f64 | color 3*u8 | width f64)
const (
	binaryMagic         = 0x54434452
	binaryFormatVersion = 1
	binarySegmentSize   = 5*8 + 3
)

// BinarySerializer implements DrawingSerializer with a compact
// fixed-layout format built on bit syntax segments
type BinarySerializer struct {
	version string
}

// NewBinarySerializer creates a new binary serializer
func NewBinarySerializer() *BinarySerializer {
	return &BinarySerializer{
		version: "1.0.0",
	}
}

// GetName returns the name of the serializer
func (bs *BinarySerializer) GetName() string {
	return "binary"
}

// GetVersion returns the version of the serializer
func (bs *BinarySerializer) GetVersion() string {
	return bs.version
}

// SupportsVersion checks if the serializer supports a specific version
func (bs *BinarySerializer) SupportsVersion(version string) bool {
	return version == "1.0.0"
}

// Extension returns ".tcd"
func (bs *BinarySerializer) Extension() string {
	return ".tcd"
}

// Serialize converts a snapshot to the binary layout
func (bs *BinarySerializer) Serialize(snap turtle.Snapshot) ([]byte, error) {
	if snap.Clears < 0 || uint64(snap.Clears) > math.MaxUint32 || uint64(len(snap.Lines)) > math.MaxUint32 {
		return nil, NewSerializationError("binary", "serialize", "counter out of range")
	}

	builder := funbit.NewBuilder()
	funbit.AddInteger(builder, binaryMagic, funbit.WithSize(32))
	funbit.AddInteger(builder, binaryFormatVersion, funbit.WithSize(8))
	addFloats(builder, snap.X, snap.Y, snap.Heading)
	addFlag(builder, snap.PenDown)
	addColor(builder, snap.PenColor)
	addFloats(builder, snap.PenWidth)
	addFlag(builder, snap.Visible)
	addColor(builder, snap.Background)
	funbit.AddInteger(builder, snap.Clears, funbit.WithSize(32))
	funbit.AddInteger(builder, len(snap.Lines), funbit.WithSize(32))
	for _, seg := range snap.Lines {
		addFloats(builder, seg.X1, seg.Y1, seg.X2, seg.Y2)
		addColor(builder, seg.Color)
		addFloats(builder, seg.Width)
	}

	bitString, err := funbit.Build(builder)
	if err != nil {
		return nil, NewSerializationError("binary", "serialize", err.Error())
	}
	return bitString.ToBytes(), nil
}

// Deserialize converts binary bytes back to a snapshot
func (bs *BinarySerializer) Deserialize(data []byte) (turtle.Snapshot, error) {
	if len(data) == 0 {
		return turtle.Snapshot{}, NewSerializationError("binary", "deserialize", "data is empty")
	}

	var (
		snap                 turtle.Snapshot
		magic, version       uint
		penDown, visible     uint
		penColor, background [3]uint
		clears, count        uint
		rest                 []byte
	)
	matcher := funbit.NewMatcher()
	funbit.Integer(matcher, &magic, funbit.WithSize(32))
	funbit.Integer(matcher, &version, funbit.WithSize(8))
	funbit.Float(matcher, &snap.X, funbit.WithSize(64))
	funbit.Float(matcher, &snap.Y, funbit.WithSize(64))
	funbit.Float(matcher, &snap.Heading, funbit.WithSize(64))
	funbit.Integer(matcher, &penDown, funbit.WithSize(8))
	matchColor(matcher, &penColor)
	funbit.Float(matcher, &snap.PenWidth, funbit.WithSize(64))
	funbit.Integer(matcher, &visible, funbit.WithSize(8))
	matchColor(matcher, &background)
	funbit.Integer(matcher, &clears, funbit.WithSize(32))
	funbit.Integer(matcher, &count, funbit.WithSize(32))
	funbit.RestBinary(matcher, &rest)

	if _, err := funbit.Match(matcher, funbit.NewBitStringFromBytes(data)); err != nil {
		return turtle.Snapshot{}, NewSerializationError("binary", "deserialize", "truncated header: "+err.Error())
	}
	if magic != binaryMagic {
		return turtle.Snapshot{}, NewSerializationError("binary", "deserialize", "not a drawing file").
			WithContext("magic", fmt.Sprintf("%#08x", magic))
	}
	if version != binaryFormatVersion {
		return turtle.Snapshot{}, NewSerializationError("binary", "deserialize",
			fmt.Sprintf("layout version %d not supported", version))
	}
	if uint64(len(rest)) != uint64(count)*binarySegmentSize {
		return turtle.Snapshot{}, NewSerializationError("binary", "deserialize",
			fmt.Sprintf("expected %d segments, found %d bytes of segment data", count, len(rest)))
	}

	snap.PenDown = penDown != 0
	snap.Visible = visible != 0
	snap.PenColor = toRGB(penColor)
	snap.Background = toRGB(background)
	snap.Clears = int(clears)

	if count > 0 {
		snap.Lines = make([]turtle.Segment, 0, count)
	}
	for i := uint(0); i < count; i++ {
		var (
			seg   turtle.Segment
			color [3]uint
			next  []byte
		)
		m := funbit.NewMatcher()
		funbit.Float(m, &seg.X1, funbit.WithSize(64))
		funbit.Float(m, &seg.Y1, funbit.WithSize(64))
		funbit.Float(m, &seg.X2, funbit.WithSize(64))
		funbit.Float(m, &seg.Y2, funbit.WithSize(64))
		matchColor(m, &color)
		funbit.Float(m, &seg.Width, funbit.WithSize(64))
		funbit.RestBinary(m, &next)

		if _, err := funbit.Match(m, funbit.NewBitStringFromBytes(rest)); err != nil {
			return turtle.Snapshot{}, NewSerializationError("binary", "deserialize", err.Error()).
				WithContext("segment", i)
		}
		seg.Color = toRGB(color)
		snap.Lines = append(snap.Lines, seg)
		rest = next
	}
	return snap, nil
}

func addFloats(builder *funbit.Builder, values ...float64) {
	for _, v := range values {
		funbit.AddFloat(builder, v, funbit.WithSize(64))
	}
}

func addFlag(builder *funbit.Builder, flag bool) {
	v := 0
	if flag {
		v = 1
	}
	funbit.AddInteger(builder, v, funbit.WithSize(8))
}

func addColor(builder *funbit.Builder, c turtle.RGB) {
	funbit.AddInteger(builder, int(c.R), funbit.WithSize(8))
	funbit.AddInteger(builder, int(c.G), funbit.WithSize(8))
	funbit.AddInteger(builder, int(c.B), funbit.WithSize(8))
}

func matchColor(matcher *funbit.Matcher, c *[3]uint) {
	for i := range c {
		funbit.Integer(matcher, &c[i], funbit.WithSize(8))
	}
}

func toRGB(c [3]uint) turtle.RGB {
	return turtle.RGB{R: uint8(c[0]), G: uint8(c[1]), B: uint8(c[2])}
}
