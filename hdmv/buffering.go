package hdmv

import "github.com/blu-disc/escore/diag"

// DecodedObjectBufferCheck enforces DB_size, spec section 4.4.5: the sum of
// every object's decoded (width*height) pixel area referenced by the
// current display set must not exceed DB_size for the graphics type. It is
// fatal on overflow; unlike the Coded Object Buffer below it is never a
// mere warning.
func DecodedObjectBufferCheck(ds *DisplaySet, sink diag.Sink) error {
	var used int64
	for _, o := range ds.objectsByID {
		used += int64(o.ObjectWidth) * int64(o.ObjectHeight)
	}
	limit := dbSizeFor(ds.Type)
	if used > limit {
		err := diag.NewComplianceError(0, "decoded_object_buffer", errDecodedObjectBufferOverflow.Error())
		if sink != nil {
			sink.Report(err)
		}
		return err
	}
	return nil
}

// CodedObjectBufferSize returns the sum of object_data_length across every
// object referenced by ds: the Coded Object Buffer occupancy, spec section
// 4.4.5. The spec only requires this be logged, never enforced, so callers
// should report it through their logger rather than treat a large value as
// an error.
func CodedObjectBufferSize(ds *DisplaySet) int64 {
	var used int64
	for _, o := range ds.objectsByID {
		used += int64(o.ObjectDataLength)
	}
	return used
}
