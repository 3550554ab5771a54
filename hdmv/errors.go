package hdmv

import "github.com/pkg/errors"

var (
	errShortSegmentHeader  = errors.New("segment header is shorter than 3 bytes")
	errShortSegmentPayload = errors.New("segment payload is shorter than segment_length")
	errUnknownSegmentType  = errors.New("unrecognized segment_type")
	errSequenceAlreadyOpen = errors.New("first_in_sequence received while a sequence of the same type is still open")
	errNoOpenSequence      = errors.New("non-first segment received with no open sequence")
	errShortODSPayload     = errors.New("ODS payload is shorter than object_data_length")
	errDuplicatePageID     = errors.New("duplicate page_id within one ICS")
	errReservedPageID      = errors.New("page_id 0xFF is reserved")
	errUnresolvedPalette   = errors.New("palette_id_ref does not resolve within the display set")
	errUnresolvedWindow    = errors.New("window_id_ref does not resolve within the display set")
	errUnresolvedObject    = errors.New("object_id_ref does not resolve within the display set")
	errButtonIDOutOfRange  = errors.New("button_id exceeds 0x1FDF")
	errDuplicateButtonID   = errors.New("duplicate button_id within one page")
	errDuplicateSelectValue = errors.New("duplicate button_numeric_select_value within one page")
	errButtonObjectRangeInvalid = errors.New("button object state range end precedes start, or its objects are not all the same size")
	errIntraBOGNeighbor    = errors.New("neighbor_info references a button within the same button overlap group")
	errInvalidDefaultValidButton = errors.New("default_valid_button_id_ref does not name a button in its own BOG")
	errInvalidDefaultPageButton  = errors.New("default_selected/activated_button_id_ref does not resolve to a BOG default")
	errCompositionObjectOutsideWindow = errors.New("composition object placement does not fit within its window")
	errWindowOutsidePlane  = errors.New("window does not fit within the video plane")
	errMissingEndSegment   = errors.New("display set did not end with exactly one END segment")
	errEpochMustStartWithICS = errors.New("epoch does not begin with an ICS of composition_state EpochStart")
	errDecodedObjectBufferOverflow = errors.New("decoded object buffer exceeds DB_size for this graphics type")
	errOutOfRangeHDMV      = errors.New("value out of allowed range")
	errDuplicateWindowID   = errors.New("duplicate window_id within one WDS")
)
