package script

import "bytes"

// Writer accumulates a script's command stream along with the two tables
// it indexes into: registered source files and reusable data blocks.
type Writer struct {
	commands []Command
	sources  []string
	blocks   [][]byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// SetSourceFile registers path, returning its src_idx. Registering the
// same path twice returns the existing index rather than duplicating it.
func (w *Writer) SetSourceFile(path string) int {
	for i, p := range w.sources {
		if p == path {
			return i
		}
	}
	idx := len(w.sources)
	w.sources = append(w.sources, path)
	w.commands = append(w.commands, Command{Kind: KindSetSourceFile, Path: path, SrcIdx: idx})
	return idx
}

// StartFrame emits start_frame(pts, dts). dts is only meaningful when
// hasDTS is true, spec section 6.4 (ODS/PCS/WDS/ICS always carry one;
// other frame kinds may omit it).
func (w *Writer) StartFrame(pts, dts uint64, hasDTS bool) {
	w.commands = append(w.commands, Command{Kind: KindStartFrame, PTS: pts, DTS: dts, HasDTS: hasDTS})
}

// CopyPESPayload emits copy_pes_payload(src_idx, dst_offset, src_offset, length).
func (w *Writer) CopyPESPayload(srcIdx int, dstOffset, srcOffset, length int64) {
	w.commands = append(w.commands, Command{
		Kind: KindCopyPESPayload, SrcIdx: srcIdx,
		DstOffset: dstOffset, SrcOffset: srcOffset, Length: length,
	})
}

// AddData emits add_data(dst_offset, mode, bytes) with a literal payload.
func (w *Writer) AddData(dstOffset int64, mode DataMode, data []byte) {
	w.commands = append(w.commands, Command{Kind: KindAddData, DstOffset: dstOffset, Mode: mode, Bytes: data})
}

// AddDataBlock emits add_data_block(dst_offset, mode, block_idx), reusing
// an existing entry in the block table if data has already been
// registered via this call, else appending a new one.
func (w *Writer) AddDataBlock(dstOffset int64, mode DataMode, data []byte) {
	idx := -1
	for i, b := range w.blocks {
		if bytes.Equal(b, data) {
			idx = i
			break
		}
	}
	if idx == -1 {
		idx = len(w.blocks)
		w.blocks = append(w.blocks, data)
	}
	w.commands = append(w.commands, Command{Kind: KindAddDataBlock, DstOffset: dstOffset, Mode: mode, BlockIdx: idx})
}

// EndMarker emits end_marker, closing the script.
func (w *Writer) EndMarker() {
	w.commands = append(w.commands, Command{Kind: KindEndMarker})
}

// Commands returns the command stream built so far, in emission order.
func (w *Writer) Commands() []Command { return w.commands }

// Blocks returns the reusable data-block table, indexed by BlockIdx.
func (w *Writer) Blocks() [][]byte { return w.blocks }

// Sources returns the registered source-file paths, indexed by SrcIdx.
func (w *Writer) Sources() []string { return w.sources }
