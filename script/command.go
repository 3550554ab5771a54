package script

// DataMode selects how AddData/AddDataBlock write into the destination,
// spec section 6.4.
type DataMode int

const (
	Insert DataMode = iota
	Overwrite
)

// Command is one opaque instruction in the output script, spec section
// 6.4. Only one of the typed fields is meaningful per Kind.
type Command struct {
	Kind Kind

	// SetSourceFile
	Path string

	// StartFrame
	PTS, DTS    uint64
	HasDTS      bool

	// CopyPESPayload
	SrcIdx                int
	DstOffset, SrcOffset  int64
	Length                int64

	// AddData / AddDataBlock
	Mode    DataMode
	Bytes   []byte
	BlockIdx int
}

// Kind identifies which script command a Command represents.
type Kind int

const (
	KindSetSourceFile Kind = iota
	KindStartFrame
	KindCopyPESPayload
	KindAddData
	KindAddDataBlock
	KindEndMarker
)
