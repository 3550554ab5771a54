// Package h264 implements the H.264/AVC elementary-stream side of the
// Blu-ray compliance-checking and timing-reconstruction core: NAL-unit
// parsing, SPS/PPS/SEI semantics, access-unit boundary detection,
// Blu-ray profile validation, HRD (CPB/DPB) simulation, DTS/PTS
// reconstruction, and in-place SPS/SEI patching.
package h264
