// Package hdmv implements the HDMV graphics (IGS/PGS) side of the
// Blu-ray compliance-checking and timing-reconstruction core: segment
// framing (raw and MNU), sequence reassembly, ICS/PCS/WDS/PDS/ODS
// payload decoding, epoch state tracking, display-set reference-closure
// validation, decoded-object-buffer sizing, and DTS/PTS reconstruction.
package hdmv
