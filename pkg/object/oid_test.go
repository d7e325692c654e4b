package object

import (
	"errors"
	"strings"
	"testing"
)

func TestParseOidRoundTrip(t *testing.T) {
	hexID := "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3"
	id, err := ParseOid(hexID)
	if err != nil {
		t.Fatalf("ParseOid: %v", err)
	}
	if got := id.String(); got != hexID {
		t.Errorf("String: got %q, want %q", got, hexID)
	}
}

func TestParseOidUppercaseNormalized(t *testing.T) {
	id, err := ParseOid("A94A8FE5CCB19BA61C4C0873D391E987982FBBD3")
	if err != nil {
		t.Fatalf("ParseOid: %v", err)
	}
	want := "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3"
	if got := id.String(); got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}
}

func TestParseOidRejectsMalformed(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"short", strings.Repeat("a", 39)},
		{"long", strings.Repeat("a", 41)},
		{"nonhex", strings.Repeat("a", 39) + "g"},
		{"spaces", strings.Repeat("a", 39) + " "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseOid(tc.input); !errors.Is(err, ErrInvalidOid) {
				t.Errorf("ParseOid(%q): err = %v, want ErrInvalidOid", tc.input, err)
			}
		})
	}
}

func TestOidFromBytes(t *testing.T) {
	raw := make([]byte, OidRawLen)
	for i := range raw {
		raw[i] = byte(i)
	}
	id, err := OidFromBytes(raw)
	if err != nil {
		t.Fatalf("OidFromBytes: %v", err)
	}
	want := "000102030405060708090a0b0c0d0e0f10111213"
	if got := id.String(); got != want {
		t.Errorf("String: got %q, want %q", got, want)
	}

	if _, err := OidFromBytes(raw[:19]); !errors.Is(err, ErrInvalidOid) {
		t.Errorf("OidFromBytes(short): err = %v, want ErrInvalidOid", err)
	}
}

func TestOidIsZero(t *testing.T) {
	var zero Oid
	if !zero.IsZero() {
		t.Error("zero value should report IsZero")
	}
	id := HashBytes([]byte("x"))
	if id.IsZero() {
		t.Error("hash of content should not report IsZero")
	}
}

func TestOidCompare(t *testing.T) {
	a, _ := ParseOid("0000000000000000000000000000000000000001")
	b, _ := ParseOid("0000000000000000000000000000000000000002")
	if a.Compare(b) >= 0 {
		t.Error("a should sort before b")
	}
	if b.Compare(a) <= 0 {
		t.Error("b should sort after a")
	}
	if a.Compare(a) != 0 {
		t.Error("a should compare equal to itself")
	}
}

func TestHashBytesDeterminism(t *testing.T) {
	data := []byte("hello world")
	h1 := HashBytes(data)
	h2 := HashBytes(data)
	if h1 != h2 {
		t.Errorf("HashBytes not deterministic: %s != %s", h1, h2)
	}
	if len(h1.String()) != OidHexLen {
		t.Errorf("hex length: got %d, want %d", len(h1.String()), OidHexLen)
	}
}

func TestHashObjectEnvelope(t *testing.T) {
	data := []byte("hello")
	h1 := HashObject(TypeBlob, data)
	h2 := HashBytes(data)
	if h1 == h2 {
		t.Error("HashObject should differ from HashBytes due to envelope")
	}

	h3 := HashObject(TypeBlob, data)
	if h1 != h3 {
		t.Error("HashObject not deterministic")
	}

	h4 := HashObject(TypeTag, data)
	if h1 == h4 {
		t.Error("different types should produce different hashes")
	}
}

func TestHashObjectKnownValue(t *testing.T) {
	// sha1("blob 0\x00") is a well-known constant.
	id := HashObject(TypeBlob, nil)
	want := "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"
	if got := id.String(); got != want {
		t.Errorf("empty blob id: got %s, want %s", got, want)
	}
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		t    Type
		want string
	}{
		{TypeCommit, "commit"},
		{TypeTree, "tree"},
		{TypeBlob, "blob"},
		{TypeTag, "tag"},
		{TypeAny, "any"},
	}
	for _, tc := range cases {
		if got := tc.t.String(); got != tc.want {
			t.Errorf("Type(%d).String() = %q, want %q", tc.t, got, tc.want)
		}
	}
}

func TestParseType(t *testing.T) {
	for _, name := range []string{"commit", "tree", "blob", "tag"} {
		typ, err := ParseType(name)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", name, err)
		}
		if typ.String() != name {
			t.Errorf("round trip: got %q, want %q", typ.String(), name)
		}
	}
	if _, err := ParseType("entity"); err == nil {
		t.Error("ParseType should reject unknown names")
	}
	if _, err := ParseType("any"); err == nil {
		t.Error("ParseType should reject the wildcard name")
	}
}

func TestTypeValid(t *testing.T) {
	for _, typ := range []Type{TypeCommit, TypeTree, TypeBlob, TypeTag} {
		if !typ.Valid() {
			t.Errorf("Type %s should be valid", typ)
		}
	}
	for _, typ := range []Type{TypeAny, Type(0), Type(5), Type(-1)} {
		if typ.Valid() {
			t.Errorf("Type(%d) should not be valid", typ)
		}
	}
}
