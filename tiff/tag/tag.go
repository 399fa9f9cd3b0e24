// Package tag defines TIFF tag identifiers, entry data types and the static
// registry describing well-known baseline tags.
package tag

import "fmt"

// ID identifies one piece of metadata within an IFD.
type ID uint16

// Baseline TIFF 6.0 tags handled by this module. Vendor-private tags outside
// this list parse fine; they just come back unnamed.
const (
	NewSubfileType            ID = 0x00FE
	SubfileType               ID = 0x00FF
	ImageWidth                ID = 0x0100
	ImageLength               ID = 0x0101
	BitsPerSample             ID = 0x0102
	Compression               ID = 0x0103
	PhotometricInterpretation ID = 0x0106
	FillOrder                 ID = 0x010A
	DocumentName              ID = 0x010D
	ImageDescription          ID = 0x010E
	Make                      ID = 0x010F
	Model                     ID = 0x0110
	StripOffsets              ID = 0x0111
	Orientation               ID = 0x0112
	SamplesPerPixel           ID = 0x0115
	RowsPerStrip              ID = 0x0116
	StripByteCounts           ID = 0x0117
	XResolution               ID = 0x011A
	YResolution               ID = 0x011B
	PlanarConfiguration       ID = 0x011C
	ResolutionUnit            ID = 0x0128
	Software                  ID = 0x0131
	DateTime                  ID = 0x0132
	Artist                    ID = 0x013B
	Predictor                 ID = 0x013D
	ColorMap                  ID = 0x0140
	TileWidth                 ID = 0x0142
	TileLength                ID = 0x0143
	TileOffsets               ID = 0x0144
	TileByteCounts            ID = 0x0145
	InkSet                    ID = 0x014C
	ExtraSamples              ID = 0x0152
	SampleFormat              ID = 0x0153
	XMP                       ID = 0x02BC
	Copyright                 ID = 0x8298
	ExifIFD                   ID = 0x8769
	ICCProfile                ID = 0x8773
	GPSIFD                    ID = 0x8825
)

// Type enumerates the TIFF entry data types, numbered as in the file format.
type Type uint16

const (
	Byte      Type = 1
	ASCII     Type = 2
	Short     Type = 3
	Long      Type = 4
	Rational  Type = 5
	SByte     Type = 6
	Undefined Type = 7
	SShort    Type = 8
	SLong     Type = 9
	SRational Type = 10
	Float     Type = 11
	Double    Type = 12
)

var typeSizes = [...]uint32{
	Byte:      1,
	ASCII:     1,
	Short:     2,
	Long:      4,
	Rational:  8,
	SByte:     1,
	Undefined: 1,
	SShort:    2,
	SLong:     4,
	SRational: 8,
	Float:     4,
	Double:    8,
}

var typeNames = [...]string{
	Byte:      "Byte",
	ASCII:     "ASCII",
	Short:     "Short",
	Long:      "Long",
	Rational:  "Rational",
	SByte:     "SByte",
	Undefined: "Undefined",
	SShort:    "SShort",
	SLong:     "SLong",
	SRational: "SRational",
	Float:     "Float",
	Double:    "Double",
}

// Valid reports whether t is one of the twelve known enumerants.
func (t Type) Valid() bool {
	return t >= Byte && t <= Double
}

// Size returns the byte width of a single value of type t, or 0 for an
// unknown type.
func (t Type) Size() uint32 {
	if !t.Valid() {
		return 0
	}
	return typeSizes[t]
}

func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Unknown(%d)", uint16(t))
	}
	return typeNames[t]
}

// IsIntegral reports whether t is one of the unsigned or signed integer types.
func (t Type) IsIntegral() bool {
	switch t {
	case Byte, Short, Long, SByte, SShort, SLong:
		return true
	}
	return false
}

// Info describes a registered tag: its name, the types a conformant writer
// may use for it, and whether the decoder needs it to locate pixel data.
type Info struct {
	Name     string
	Types    []Type
	Required bool
}

var registry = map[ID]Info{
	NewSubfileType:            {Name: "NewSubfileType", Types: []Type{Long}},
	SubfileType:               {Name: "SubfileType", Types: []Type{Short}},
	ImageWidth:                {Name: "ImageWidth", Types: []Type{Short, Long}, Required: true},
	ImageLength:               {Name: "ImageLength", Types: []Type{Short, Long}, Required: true},
	BitsPerSample:             {Name: "BitsPerSample", Types: []Type{Short}},
	Compression:               {Name: "Compression", Types: []Type{Short}},
	PhotometricInterpretation: {Name: "PhotometricInterpretation", Types: []Type{Short}, Required: true},
	FillOrder:                 {Name: "FillOrder", Types: []Type{Short}},
	DocumentName:              {Name: "DocumentName", Types: []Type{ASCII}},
	ImageDescription:          {Name: "ImageDescription", Types: []Type{ASCII}},
	Make:                      {Name: "Make", Types: []Type{ASCII}},
	Model:                     {Name: "Model", Types: []Type{ASCII}},
	StripOffsets:              {Name: "StripOffsets", Types: []Type{Short, Long}},
	Orientation:               {Name: "Orientation", Types: []Type{Short}},
	SamplesPerPixel:           {Name: "SamplesPerPixel", Types: []Type{Short}},
	RowsPerStrip:              {Name: "RowsPerStrip", Types: []Type{Short, Long}},
	StripByteCounts:           {Name: "StripByteCounts", Types: []Type{Short, Long}},
	XResolution:               {Name: "XResolution", Types: []Type{Rational}},
	YResolution:               {Name: "YResolution", Types: []Type{Rational}},
	PlanarConfiguration:       {Name: "PlanarConfiguration", Types: []Type{Short}},
	ResolutionUnit:            {Name: "ResolutionUnit", Types: []Type{Short}},
	Software:                  {Name: "Software", Types: []Type{ASCII}},
	DateTime:                  {Name: "DateTime", Types: []Type{ASCII}},
	Artist:                    {Name: "Artist", Types: []Type{ASCII}},
	Predictor:                 {Name: "Predictor", Types: []Type{Short}},
	ColorMap:                  {Name: "ColorMap", Types: []Type{Short}},
	TileWidth:                 {Name: "TileWidth", Types: []Type{Short, Long}},
	TileLength:                {Name: "TileLength", Types: []Type{Short, Long}},
	TileOffsets:               {Name: "TileOffsets", Types: []Type{Long}},
	TileByteCounts:            {Name: "TileByteCounts", Types: []Type{Short, Long}},
	InkSet:                    {Name: "InkSet", Types: []Type{Short}},
	ExtraSamples:              {Name: "ExtraSamples", Types: []Type{Short}},
	SampleFormat:              {Name: "SampleFormat", Types: []Type{Short}},
	XMP:                       {Name: "XMP", Types: []Type{Byte, Undefined}},
	Copyright:                 {Name: "Copyright", Types: []Type{ASCII}},
	ExifIFD:                   {Name: "ExifIFD", Types: []Type{Long}},
	ICCProfile:                {Name: "ICCProfile", Types: []Type{Undefined}},
	GPSIFD:                    {Name: "GPSIFD", Types: []Type{Long}},
}

// Lookup returns the registry entry for id. Unknown IDs are reported as
// private tags via ok == false, never as an error: TIFF explicitly allows
// vendor-private tags.
func Lookup(id ID) (Info, bool) {
	info, ok := registry[id]
	return info, ok
}

// Name returns the registered name of id, or a stable placeholder for
// private tags.
func Name(id ID) string {
	if info, ok := registry[id]; ok {
		return info.Name
	}
	return fmt.Sprintf("UnknownTag_0x%04X", uint16(id))
}

// Allows reports whether the registry permits storing id with type t.
// Unregistered tags allow any type.
func Allows(id ID, t Type) bool {
	info, ok := registry[id]
	if !ok {
		return true
	}
	for _, allowed := range info.Types {
		if allowed == t {
			return true
		}
	}
	return false
}
