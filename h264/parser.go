package h264

import (
	"io"

	"github.com/blu-disc/escore/bits"
	"github.com/blu-disc/escore/diag"
	"github.com/blu-disc/escore/script"
)

// Parameters is the H.264 Parameters Handler, section 2: it holds the
// currently active SPS/PPS tables, the in-progress access unit, and the
// progress counters used to reconstruct DTS/PTS.
type Parameters struct {
	SPSTable [32]*SpsData
	PPSTable [256]*PpsData

	ActiveSPS *SpsData
	ActivePPS *PpsData

	Timing TimingState
	POC    PocState
	DPB    *DPB

	lastAUD      *AccessUnitDelimiter
	lastSliceHdr *SliceHeader
	lastNALType  int
	lastNALRefIdc uint8

	LargestAUSize     int64
	LargestIPicAUSize int64
	NbPics            int64
	NbConsecutiveBPics int64
	NbDistinctPatchedSPS int

	Mode diag.Mode
	Sink diag.Sink

	hrd      *HRDVerifier
	warnOnce *diag.WarnOnce
}

// NewParameters constructs an empty Parameters handler.
func NewParameters(mode diag.Mode, sink diag.Sink) *Parameters {
	return &Parameters{Mode: mode, Sink: sink, warnOnce: diag.NewWarnOnce()}
}

// ParserOptions gates the spec section 6.5 options that affect H.264
// parsing: disabling SPS/HRD patch fixes, skipping the HRD verifier
// entirely, and discarding or forcibly rebuilding SEI messages.
type ParserOptions struct {
	DisableFixes       bool
	DisableHRDVerifier bool
	DiscardSEI         bool
	ForceRebuildSEI    bool
	Rebuild            RebuildOptions
}

// Parser drives a Scanner and a Parameters handler over a full elementary
// stream, producing AccessUnits and feeding the HRD verifier, section 2's
// "H.264 Access-Unit Builder" and "HRD Verifier" components. It also
// drives the Access-Unit Builder's script output: one copy/add command per
// consumed NAL unit, and one start_frame per access unit.
type Parser struct {
	scan   *Scanner
	params *Parameters
	opt    ParserOptions

	writer    *script.Writer
	srcIdx    int
	pool      *SPSPool
	dstCursor int64

	currentAU *AccessUnit
	aus       []*AccessUnit
}

// NewParser constructs a Parser reading Annex-B NAL units from r, applying
// opt's patch/HRD/SEI gates at every relevant decision point, and writing
// the Access-Unit Builder's output commands to writer.
func NewParser(r io.Reader, mode diag.Mode, sink diag.Sink, opt ParserOptions, sourcePath string, writer *script.Writer) *Parser {
	p := &Parser{
		scan:   NewScanner(r),
		params: NewParameters(mode, sink),
		opt:    opt,
		writer: writer,
		pool:   NewSPSPool(),
	}
	p.srcIdx = writer.SetSourceFile(sourcePath)
	return p
}

// Parameters returns the parser's Parameters handler.
func (p *Parser) Parameters() *Parameters { return p.params }

// Run consumes the entire stream, returning the completed access units or
// the first fatal diagnostic encountered.
func (p *Parser) Run() ([]*AccessUnit, error) {
	for {
		raw, err := p.scan.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := p.consumeNAL(raw); err != nil {
			if diag.IsFatal(err, p.params.Mode) {
				return nil, err
			}
		}
	}
	p.flushAU()
	return p.aus, nil
}

func (p *Parser) consumeNAL(raw *RawNALUnit) error {
	br := bits.NewRBSPReader(newByteSliceReader(raw.Payload))
	hdr, err := ParseNALHeader(br, raw.Offset)
	if err != nil {
		return err
	}

	if !acceptedNALTypes[hdr.Type] && !IsVCL(hdr.Type) {
		return diag.NewParserError(raw.Offset, "nal_unit_type", errUnsupportedNALType)
	}

	switch hdr.Type {
	case NALTypeAUD:
		p.flushAU()
		aud, err := ParseAUD(br, raw.Offset)
		if err != nil {
			return err
		}
		p.params.lastAUD = aud
		p.copyNAL(raw)
	case NALTypeSPS:
		p.flushAU()
		sps, err := ParseSPS(br, raw.Offset)
		if err != nil {
			return err
		}
		if err := ValidateSPS(sps, p.params.Sink, p.params.warnOnce); err != nil {
			return err
		}
		if p.opt.DisableFixes {
			p.copyNAL(raw)
		} else {
			patched := PatchSPS(sps, p.opt.Rebuild)
			nalBytes := append([]byte{raw.Payload[0]}, patched...)
			if _, isNew := p.pool.Intern(nalBytes); isNew {
				p.params.NbDistinctPatchedSPS++
			}
			p.writer.AddDataBlock(p.dstCursor, script.Overwrite, nalBytes)
			p.dstCursor += int64(len(nalBytes))
		}
		p.params.SPSTable[sps.SeqParameterSetID] = sps
		p.params.ActiveSPS = sps
		p.params.Timing.SetFrameRate(sps.VUI)
		limits, _ := LevelLimitsFor(sps.LevelIdc)
		p.params.DPB = NewDPB(MaxDpbFrames(limits, sps))
		if !p.opt.DisableHRDVerifier {
			var hrd *HrdParameters
			if sps.VUI != nil {
				hrd = sps.VUI.NALHrdParameters
				if hrd == nil {
					hrd = sps.VUI.VCLHrdParameters
				}
			}
			p.params.hrd = NewHRDVerifier(sps, hrd, p.params.Sink, p.params.Mode)
		}
	case NALTypePPS:
		p.flushAU()
		pps, err := ParsePPS(br, raw.Offset, p.params.ActiveSPS)
		if err != nil {
			return err
		}
		if err := ValidatePPS(pps, p.params.ActiveSPS, p.params.Sink); err != nil {
			return err
		}
		p.params.PPSTable[pps.PicParameterSetID] = pps
		p.params.ActivePPS = pps
		p.copyNAL(raw)
	case NALTypeSEI:
		p.flushAU()
		if p.opt.DiscardSEI {
			return nil
		}
		var nalHRD, vclHRD *HrdParameters
		if p.params.ActiveSPS != nil && p.params.ActiveSPS.VUI != nil {
			nalHRD = p.params.ActiveSPS.VUI.NALHrdParameters
			vclHRD = p.params.ActiveSPS.VUI.VCLHrdParameters
		}
		msgs, err := ParseSEIMessages(br, raw.Offset, nalHRD, vclHRD)
		if err != nil {
			return err
		}
		// ForceRebuildSEI means buffering-period timing comes from the HRD
		// simulation itself rather than the stream's own SEI, so the
		// stream's buffering_period messages are parsed (for validation)
		// but not fed back into the verifier.
		if !p.opt.ForceRebuildSEI {
			for _, m := range msgs {
				if m.BufferingPeriod != nil && p.params.hrd != nil {
					p.params.hrd.OnBufferingPeriod(m.BufferingPeriod)
				}
			}
		}
		p.copyNAL(raw)
	case NALTypeFiller:
		p.flushAU()
		p.copyNAL(raw)
	case NALTypeNonIDR, NALTypeIDR:
		return p.consumeSlice(br, raw, hdr)
	case NALTypeEndOfSeq, NALTypeEndOfStream:
		p.flushAU()
		p.copyNAL(raw)
	}
	return nil
}

// dpbEntryFor builds the DPBEntry the just-decoded access unit contributes
// to the picture buffer: a long-term reference if its marking named it one
// (including an IDR's long_term_reference_flag), a short-term reference if
// nal_ref_idc is nonzero, else a non-reference picture kept only for
// output ordering.
func dpbEntryFor(au *AccessUnit) *DPBEntry {
	e := &DPBEntry{
		FrameNum:        au.Slice.FrameNum,
		FieldPicFlag:    au.Slice.FieldPicFlag,
		BottomFieldFlag: au.Slice.BottomFieldFlag,
		PicNum:          int32(au.Slice.FrameNum),
		MaxLongTermFrameIdx: -1,
	}
	switch {
	case au.Slice.DecRefPicMarking != nil && au.Slice.DecRefPicMarking.LongTermReferenceFlag:
		e.Usage = RefLongTerm
	case au.NALRefIdc != 0:
		e.Usage = RefShortTerm
	default:
		e.Usage = RefNotUsed
	}
	return e
}

// copyNAL emits a copy_pes_payload for a NAL unit that is reproduced
// byte-for-byte in the output (every NAL except a patched SPS), advancing
// the shared destination cursor.
func (p *Parser) copyNAL(raw *RawNALUnit) {
	length := int64(len(raw.Payload))
	p.writer.CopyPESPayload(p.srcIdx, p.dstCursor, raw.Offset, length)
	p.dstCursor += length
}

func (p *Parser) consumeSlice(br *bits.Reader, raw *RawNALUnit, hdr NALHeader) error {
	if p.params.ActiveSPS == nil || p.params.ActivePPS == nil {
		return diag.NewParserError(raw.Offset, "slice", errNoActiveParameterSets)
	}
	sh, err := ParseSliceHeader(br, raw.Offset, hdr.Type, hdr.RefIdc, p.params.ActiveSPS, p.params.ActivePPS)
	if err != nil {
		return err
	}

	profile := ProfileFromIdc(p.params.ActiveSPS.ProfileIdc, p.params.ActiveSPS.Constraints)
	if err := ValidateSliceType(sh.SliceType, profile, p.params.lastAUD, p.params.Sink); err != nil {
		return err
	}

	newAU := p.currentAU == nil || NewAccessUnitBoundary(p.params.lastNALType, p.params.lastSliceHdr, hdr.Type, hdr.RefIdc, p.params.lastNALRefIdc, sh, p.params.ActiveSPS)
	if newAU {
		p.flushAU()
		p.startAU(hdr, sh)
	}
	p.currentAU.NALUnits = append(p.currentAU.NALUnits, NALUnitInfo{Header: hdr, Offset: raw.Offset, Payload: raw.Payload})

	p.params.lastNALType = hdr.Type
	p.params.lastNALRefIdc = hdr.RefIdc
	p.params.lastSliceHdr = sh
	return nil
}

func (p *Parser) startAU(hdr NALHeader, sh *SliceHeader) {
	if hdr.Type == NALTypeIDR {
		p.params.POC.Reset()
	}
	p.currentAU = &AccessUnit{Slice: sh, NALType: hdr.Type, NALRefIdc: hdr.RefIdc, FirstInStream: len(p.aus) == 0}
	p.params.lastAUD = nil
}

func (p *Parser) flushAU() {
	if p.currentAU == nil {
		return
	}
	au := p.currentAU
	p.currentAU = nil

	sps := p.params.ActiveSPS
	if sps != nil && au.Slice != nil {
		var top, bottom int32
		var err error
		switch sps.PicOrderCntType {
		case 0:
			top, bottom, err = ComputePOCType0(&p.params.POC, sps, au.Slice, au.NALType, au.NALRefIdc)
		case 1:
			top, bottom, err = ComputePOCType1(&p.params.POC, sps, au.Slice, au.NALType, au.NALRefIdc)
		case 2:
			top, bottom, err = ComputePOCType2(&p.params.POC, sps, au.Slice, au.NALType, au.NALRefIdc)
		}
		if err == nil {
			poc := CumulativePicOrderCnt(au.Slice.FieldPicFlag, au.Slice.BottomFieldFlag, top, bottom)
			if poc%2 != 0 {
				if p.params.Sink != nil {
					p.params.Sink.Report(diag.NewRestartRequest("odd picture order count observed under half-POC timing"))
				}
			}
			au.DTS, au.PTS = p.params.Timing.NextAU(int64(poc), au.Slice.FieldPicFlag, PicStructFrame)
		}
		if p.params.DPB != nil {
			if au.Slice.DecRefPicMarking != nil {
				p.params.DPB.ApplyMarking(au.Slice.DecRefPicMarking, au.Slice.FrameNum)
			}
			p.params.DPB.Insert(dpbEntryFor(au))
		}
	}

	var size int64
	for _, n := range au.NALUnits {
		size += int64(len(n.Payload))
	}
	if size > p.params.LargestAUSize {
		p.params.LargestAUSize = size
	}
	if au.NALType == NALTypeIDR && size > p.params.LargestIPicAUSize {
		p.params.LargestIPicAUSize = size
	}
	p.params.NbPics++

	if p.params.hrd != nil {
		p.params.hrd.AddAU(len(p.aus), size*8, au.NALType == NALTypeIDR)
	}

	p.writer.StartFrame(uint64(au.PTS), uint64(au.DTS), true)
	for _, n := range au.NALUnits {
		p.writer.CopyPESPayload(p.srcIdx, p.dstCursor, n.Offset, int64(len(n.Payload)))
		p.dstCursor += int64(len(n.Payload))
	}

	p.aus = append(p.aus, au)
}

// byteSliceReader adapts a []byte to io.Reader without copying, used to
// feed NAL payloads into bits.NewRBSPReader.
type byteSliceReader struct {
	b   []byte
	pos int
}

func newByteSliceReader(b []byte) *byteSliceReader { return &byteSliceReader{b: b} }

func (r *byteSliceReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.b) {
		return 0, io.EOF
	}
	n := copy(p, r.b[r.pos:])
	r.pos += n
	return n, nil
}
