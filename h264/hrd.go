package h264

import (
	"github.com/blu-disc/escore/diag"
)

// AUBufferRecord is one entry of the CPB's per-access-unit bookkeeping,
// section 4.3: {AU_index, length_in_bits, nominal_removal_time, picture_info}.
type AUBufferRecord struct {
	AUIndex            int
	LengthInBits        int64
	NominalRemovalTime  int64 // 90kHz ticks.
	IsIDR               bool
}

// HRDVerifier simulates the CPB and DPB for one SPS's HRD parameters,
// section 4.3.
type HRDVerifier struct {
	sps  *SpsData
	hrd  *HrdParameters
	mode diag.Mode
	sink diag.Sink

	clock90kHz int64
	records    []AUBufferRecord
	occupancyBits int64

	warnOnce *diag.WarnOnce
}

// NewHRDVerifier constructs a verifier for sps/hrd (the NAL HRD parameters,
// falling back to VCL if NAL is absent). mode.Lax downgrades
// standard-compliance failures to warnings; fatal failures always abort.
func NewHRDVerifier(sps *SpsData, hrd *HrdParameters, sink diag.Sink, mode diag.Mode) *HRDVerifier {
	return &HRDVerifier{sps: sps, hrd: hrd, sink: sink, mode: mode, warnOnce: diag.NewWarnOnce()}
}

// OnBufferingPeriod sets the nominal removal time of the next AU to be
// added, per t_r(n_b) = initial_cpb_removal_delay/90000 * 90000.
func (v *HRDVerifier) OnBufferingPeriod(bp *BufferingPeriod) {
	v.clock90kHz = int64(bp.InitialCpbRemovalDelay)
}

// AddAU checks and records one access unit of lengthInBits bits arriving at
// the current point in the stream. auIndex identifies it for diagnostics.
func (v *HRDVerifier) AddAU(auIndex int, lengthInBits int64, isIDR bool) error {
	if v.hrd == nil {
		return nil
	}
	schedIdx := 0
	bitRate := v.hrd.BitRate[schedIdx]
	cpbSize := v.hrd.CpbSize[schedIdx]

	// (i) initial CPB removal delay must not overflow CpbSize/BitRate.
	maxDelay := int64(cpbSize) * 90000 / int64(bitRate)
	if v.clock90kHz > maxDelay {
		return v.fail(diag.NewComplianceError(0, "initial_cpb_removal_delay", "initial CPB removal delay exceeds CpbSize/BitRate"))
	}

	rec := AUBufferRecord{AUIndex: auIndex, LengthInBits: lengthInBits, NominalRemovalTime: v.clock90kHz, IsIDR: isIDR}
	v.records = append(v.records, rec)

	// (ii) occupancy never exceeds CpbSize.
	v.occupancyBits += lengthInBits
	if v.occupancyBits > int64(cpbSize) {
		return v.fail(diag.NewComplianceError(0, "cpb_occupancy", "CPB occupancy exceeds CpbSize"))
	}

	// (iv) no underflow: the byte stream must arrive by the next removal time.
	removalTime := v.nextRemovalTime(lengthInBits, bitRate)
	if removalTime < v.clock90kHz {
		return v.fail(diag.NewComplianceError(0, "cpb_underflow", "CPB underflow: bits not available by removal time"))
	}

	// (iii) CBR strict-equality arrival-rate constraint: the bits that
	// arrive over the interval must exactly saturate bitRate, not merely
	// not exceed it.
	if v.hrd.CbrFlag[schedIdx] {
		interval := removalTime - rec.NominalRemovalTime
		expected := interval * int64(bitRate) / 90000
		if expected != lengthInBits {
			return v.fail(diag.NewComplianceError(0, "cbr_flag", "CBR stream violates strict arrival-rate equality"))
		}
	}

	v.occupancyBits -= lengthInBits
	v.clock90kHz = removalTime
	return nil
}

// nextRemovalTime advances the simulated clock by max(T_e, T_r), where T_e
// is the time needed to transmit lengthInBits at bitRate and T_r is the
// nominal per-picture interval from the SPS VUI timing info.
func (v *HRDVerifier) nextRemovalTime(lengthInBits int64, bitRate uint64) int64 {
	te := lengthInBits * 90000 / int64(bitRate)
	tr := int64(0)
	if v.sps.VUI != nil && v.sps.VUI.TimingInfoPresentFlag && v.sps.VUI.NumUnitsInTick != 0 {
		tr = int64(90000) * 2 * int64(v.sps.VUI.NumUnitsInTick) / int64(v.sps.VUI.TimeScale)
	}
	step := te
	if tr > step {
		step = tr
	}
	return v.clock90kHz + step
}

// fail reports err and, depending on mode/severity, either returns it
// (fatal) or downgrades it to a Warning (BD-lax).
func (v *HRDVerifier) fail(err *diag.ComplianceError) error {
	if v.mode.Lax {
		w := diag.NewWarning(err.Offset, err.Rule, err.Msg)
		if v.sink != nil {
			v.sink.Report(w)
		}
		return nil
	}
	if v.sink != nil {
		v.sink.Report(err)
	}
	return err
}
