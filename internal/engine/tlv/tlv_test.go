package tlv

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeDecodeFieldsPreservesUnknown(t *testing.T) {
	in := []Field{
		String(4, "/3/0/2"),
		{ID: 200, Type: TypeBytes, Value: []byte{0xAA, 0xBB}}, // unknown field id
	}
	b, err := EncodeFields(in)
	if err != nil {
		t.Fatalf("encode fields: %v", err)
	}
	if len(b) != 2*HeaderLen+6+2 {
		t.Fatalf("unexpected encoded length: %d", len(b))
	}
	out, err := DecodeFields(b)
	if err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(out))
	}
	if out[1].ID != 200 || out[1].Type != TypeBytes || !bytes.Equal(out[1].Value, []byte{0xAA, 0xBB}) {
		t.Fatalf("unknown field not preserved: %+v", out[1])
	}
}

func TestDecodeFieldsMalformedHeaderIsDeterministic(t *testing.T) {
	_, err := DecodeFields([]byte{1, 2})
	if !errors.Is(err, ErrShortFieldHeader) {
		t.Fatalf("expected ErrShortFieldHeader, got %v", err)
	}
}

func TestDecodeFieldsMalformedLengthIsDeterministic(t *testing.T) {
	// id=1, type=string, len=5, value only 2 bytes
	payload := []byte{1, TypeString, 5, 'a', 'b'}
	_, err := DecodeFields(payload)
	if !errors.Is(err, ErrShortFieldValue) {
		t.Fatalf("expected ErrShortFieldValue, got %v", err)
	}
}

func TestEncodeFieldRejectsOversizedValue(t *testing.T) {
	_, err := EncodeField(Bytes(1, make([]byte, MaxValueLen+1)))
	if !errors.Is(err, ErrValueTooLong) {
		t.Fatalf("expected ErrValueTooLong, got %v", err)
	}
}

func TestIntegerFieldsDecode(t *testing.T) {
	f := U16(2, 0xBEEF)
	if err := MustType(f, TypeU16); err != nil {
		t.Fatalf("type check: %v", err)
	}
	if v, err := U16FromBytes(f.Value); err != nil || v != 0xBEEF {
		t.Fatalf("u16 got=%x err=%v", v, err)
	}
	if v, err := U32FromBytes(U32(7, 300).Value); err != nil || v != 300 {
		t.Fatalf("u32 got=%d err=%v", v, err)
	}
	if _, err := U8FromBytes([]byte{1, 2}); err == nil {
		t.Fatalf("expected u8 length error")
	}
	if err := MustType(U8(1, 1), TypeString); err == nil {
		t.Fatalf("expected type mismatch")
	}
}
