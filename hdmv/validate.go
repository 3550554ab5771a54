package hdmv

import (
	"github.com/blu-disc/escore/diag"
)

// ValidateDisplaySet runs check_and_build_display_set, spec section 4.4.4:
// reference-closure and layout checks over one fully-received display set.
// It reports every violation it finds through sink and returns the first
// one as an error.
func ValidateDisplaySet(e *EpochState, sink diag.Sink) error {
	report := func(rule string, cause error) error {
		err := diag.NewComplianceError(0, rule, cause.Error())
		if sink != nil {
			sink.Report(err)
		}
		return err
	}

	ds := e.DS
	if ds.endCount != 1 {
		return report("display_set_end", errMissingEndSegment)
	}

	if err := validateWindowsFitPlane(e, report); err != nil {
		return err
	}

	if ds.Type == GraphicsIGS {
		if ds.ICS == nil {
			return report("epoch_start_ics", errEpochMustStartWithICS)
		}
		if err := validateICS(ds, report); err != nil {
			return err
		}
	} else if ds.PCS != nil {
		if err := validatePCSAgainstDS(ds, report); err != nil {
			return err
		}
	}
	return nil
}

type reporter func(rule string, cause error) error

func validateWindowsFitPlane(e *EpochState, report reporter) error {
	for _, w := range e.DS.windowsByID {
		if int(w.X)+int(w.W) > int(e.Video.VideoWidth) || int(w.Y)+int(w.H) > int(e.Video.VideoHeight) {
			return report("window_outside_plane", errWindowOutsidePlane)
		}
	}
	return nil
}

func validatePCSAgainstDS(ds *DisplaySet, report reporter) error {
	pcs := ds.PCS
	if _, ok := ds.palettesByID[pcs.PaletteIDRef]; !ok {
		return report("palette_id_ref", errUnresolvedPalette)
	}
	for _, co := range pcs.CompositionObjects {
		if err := validateCompositionObject(ds, co, report); err != nil {
			return err
		}
	}
	return nil
}

func validateCompositionObject(ds *DisplaySet, co CompositionObject, report reporter) error {
	obj, ok := ds.objectsByID[co.ObjectIDRef]
	if !ok {
		return report("object_id_ref", errUnresolvedObject)
	}
	win, ok := ds.windowsByID[co.WindowIDRef]
	if !ok {
		return report("window_id_ref", errUnresolvedWindow)
	}
	if int(co.X) < int(win.X) || int(co.Y) < int(win.Y) ||
		int(co.X)+int(obj.ObjectWidth) > int(win.X)+int(win.W) ||
		int(co.Y)+int(obj.ObjectHeight) > int(win.Y)+int(win.H) {
		return report("composition_object_position", errCompositionObjectOutsideWindow)
	}
	if co.Cropped {
		if int(co.CropX)+int(co.CropW) > int(obj.ObjectWidth) || int(co.CropY)+int(co.CropH) > int(obj.ObjectHeight) {
			return report("composition_object_crop", errCompositionObjectOutsideWindow)
		}
	}
	return nil
}

func validateICS(ds *DisplaySet, report reporter) error {
	ic := ds.ICS
	seenPageIDs := make(map[uint8]bool, len(ic.Pages))
	for _, page := range ic.Pages {
		if page.PageID == 0xFF {
			return report("page_id", errReservedPageID)
		}
		if seenPageIDs[page.PageID] {
			return report("page_id", errDuplicatePageID)
		}
		seenPageIDs[page.PageID] = true

		if _, ok := ds.palettesByID[page.PaletteIDRef]; !ok {
			return report("palette_id_ref", errUnresolvedPalette)
		}
		if err := validatePage(ds, page, report); err != nil {
			return err
		}
	}
	return nil
}

func validatePage(ds *DisplaySet, page Page, report reporter) error {
	buttonBOG := make(map[uint16]int) // button_id -> BOG index.
	seenButtonIDs := make(map[uint16]bool)
	seenSelectValues := make(map[uint16]bool)
	validDefaults := make(map[uint16]bool, len(page.BOGs))

	for bogIdx, bog := range page.BOGs {
		foundDefault := false
		for _, btn := range bog.Buttons {
			if btn.ButtonID > 0x1FDF {
				return report("button_id", errButtonIDOutOfRange)
			}
			if seenButtonIDs[btn.ButtonID] {
				return report("button_id", errDuplicateButtonID)
			}
			seenButtonIDs[btn.ButtonID] = true
			buttonBOG[btn.ButtonID] = bogIdx

			if btn.ButtonNumericSelectValue != 0xFFFF {
				if btn.ButtonNumericSelectValue > 9999 {
					return report("button_numeric_select_value", errOutOfRangeHDMV)
				}
				if seenSelectValues[btn.ButtonNumericSelectValue] {
					return report("button_numeric_select_value", errDuplicateSelectValue)
				}
				seenSelectValues[btn.ButtonNumericSelectValue] = true
			}

			if btn.ButtonID == bog.DefaultValidButtonIDRef {
				foundDefault = true
			}

			if err := validateButtonObjectRanges(ds, btn, report); err != nil {
				return err
			}
		}
		if !foundDefault {
			return report("default_valid_button_id_ref", errInvalidDefaultValidButton)
		}
		validDefaults[bog.DefaultValidButtonIDRef] = true
	}

	for bogIdx, bog := range page.BOGs {
		for _, btn := range bog.Buttons {
			for _, n := range []uint16{btn.Neighbor.Up, btn.Neighbor.Down, btn.Neighbor.Left, btn.Neighbor.Right} {
				if n == btn.ButtonID {
					continue
				}
				if nBog, ok := buttonBOG[n]; ok && nBog == bogIdx {
					return report("neighbor_info", errIntraBOGNeighbor)
				}
			}
		}
	}

	if page.DefaultSelectedButtonIDRef != 0xFFFF && !validDefaults[page.DefaultSelectedButtonIDRef] {
		return report("default_selected_button_id_ref", errInvalidDefaultPageButton)
	}
	if page.DefaultActivatedButtonIDRef != 0xFFFF && !validDefaults[page.DefaultActivatedButtonIDRef] {
		return report("default_activated_button_id_ref", errInvalidDefaultPageButton)
	}

	if err := validateEffectSequence(ds, page.InEffects, report); err != nil {
		return err
	}
	if err := validateEffectSequence(ds, page.OutEffects, report); err != nil {
		return err
	}
	return nil
}

func validateButtonObjectRanges(ds *DisplaySet, btn Button, report reporter) error {
	var w, h uint16
	haveSize := false
	for _, st := range []ButtonStateInfo{btn.Normal, btn.Selected, btn.Activated} {
		if st.StartObjectIDRef == 0 && st.EndObjectIDRef == 0 {
			continue // state unused.
		}
		if st.EndObjectIDRef < st.StartObjectIDRef {
			return report("button_state_object_range", errButtonObjectRangeInvalid)
		}
		for id := st.StartObjectIDRef; id <= st.EndObjectIDRef; id++ {
			obj, ok := ds.objectsByID[id]
			if !ok {
				return report("object_id_ref", errUnresolvedObject)
			}
			if !haveSize {
				w, h = obj.ObjectWidth, obj.ObjectHeight
				haveSize = true
			} else if obj.ObjectWidth != w || obj.ObjectHeight != h {
				return report("button_state_object_range", errButtonObjectRangeInvalid)
			}
		}
	}
	return nil
}

func validateEffectSequence(ds *DisplaySet, es EffectSequence, report reporter) error {
	for _, eff := range es.Effects {
		win, ok := ds.windowsByID[eff.WindowIDRef]
		if !ok {
			return report("window_id_ref", errUnresolvedWindow)
		}
		for _, co := range eff.CompositionObjects {
			obj, ok := ds.objectsByID[co.ObjectIDRef]
			if !ok {
				return report("object_id_ref", errUnresolvedObject)
			}
			if int(co.X) < int(win.X) || int(co.Y) < int(win.Y) ||
				int(co.X)+int(obj.ObjectWidth) > int(win.X)+int(win.W) ||
				int(co.Y)+int(obj.ObjectHeight) > int(win.Y)+int(win.H) {
				return report("composition_object_position", errCompositionObjectOutsideWindow)
			}
		}
	}
	return nil
}
