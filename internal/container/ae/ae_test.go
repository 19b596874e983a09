package ae

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	obj := Object{
		Arch:    1,
		SubArch: 0,
		Records: []Record{
			{Name: "__ImageStart", Kind: 1, Size: 4, Offset: 0},
			{Name: ":UndefinedSymbol:bar", Kind: 2, Flags: RelocationAtRuntime, Offset: 0},
		},
		Code: []byte{0x90, 0x90, 0x90, 0x90},
	}

	var buf bytes.Buffer
	if err := Encode(&buf, obj); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.Arch != obj.Arch || got.SubArch != obj.SubArch {
		t.Fatalf("arch mismatch: got %+v", got)
	}
	if len(got.Records) != len(obj.Records) {
		t.Fatalf("record count mismatch: got %d want %d", len(got.Records), len(obj.Records))
	}
	for i, r := range obj.Records {
		if got.Records[i].Name != r.Name {
			t.Errorf("record %d name: got %q want %q", i, got.Records[i].Name, r.Name)
		}
		if got.Records[i].Kind != r.Kind {
			t.Errorf("record %d kind: got %d want %d", i, got.Records[i].Kind, r.Kind)
		}
	}
	if !bytes.Equal(got.Code, obj.Code) {
		t.Errorf("code blob mismatch: got %x want %x", got.Code, obj.Code)
	}
}

func TestDecodeBadMagic(t *testing.T) {
	_, err := Decode(bytes.NewReader(make([]byte, 64)))
	if err != ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestRecordOffsetWithinBlob(t *testing.T) {
	obj := Object{
		Arch:    1,
		Records: []Record{{Name: "foo", Size: 2, Offset: 0}},
		Code:    []byte{0x01, 0x02},
	}
	for _, r := range obj.Records {
		if r.Offset+r.Size > uint64(len(obj.Code)) {
			t.Fatalf("record %s exceeds blob: offset=%d size=%d blob=%d", r.Name, r.Offset, r.Size, len(obj.Code))
		}
	}
}
