package prunejson

import "bytes"

// NullRecord is written by JoinRecords in place of a record with no JSON
// text: nil, empty or whitespace only.
const NullRecord = "{}"

// CheckRecords verifies that no record contains a newline. A record with an
// embedded newline would split into two NDJSON lines and shift every row
// after it, so it is reported as a *MalformedInputError before decoding.
func CheckRecords(records [][]byte) error {
	for i, r := range records {
		if bytes.IndexByte(r, '\n') >= 0 {
			return &MalformedInputError{Index: i, Reason: "record contains a newline"}
		}
	}
	return nil
}

// JoinRecords concatenates records into one NDJSON buffer, one record per
// line. A record without JSON text stands for a missing value and is written
// as NullRecord, so it still decodes to an all-null row instead of a blank
// line that would drop out of the batch.
func JoinRecords(records [][]byte) ([]byte, error) {
	if err := CheckRecords(records); err != nil {
		return nil, err
	}
	size := 0
	for _, r := range records {
		if isNullRecord(r) {
			size += len(NullRecord) + 1
			continue
		}
		size += len(r) + 1
	}
	out := make([]byte, 0, size)
	for i, r := range records {
		if i > 0 {
			out = append(out, '\n')
		}
		if isNullRecord(r) {
			out = append(out, NullRecord...)
			continue
		}
		out = append(out, r...)
	}
	return out, nil
}

func isNullRecord(r []byte) bool { return len(bytes.TrimSpace(r)) == 0 }
