package types

import (
	"encoding/json"
	"testing"
)

func TestCategoryJSONAcceptsNameOrNumber(t *testing.T) {
	cases := []struct {
		in   string
		want Category
	}{
		{`"HAPPY"`, CategoryHappy},
		{`"SAD"`, CategorySad},
		{`2`, CategoryAngry},
		{`0`, CategoryHappy},
	}
	for _, tc := range cases {
		var c Category
		if err := json.Unmarshal([]byte(tc.in), &c); err != nil {
			t.Errorf("unmarshal %s: %v", tc.in, err)
			continue
		}
		if c != tc.want {
			t.Errorf("unmarshal %s = %v, want %v", tc.in, c, tc.want)
		}
	}
}

func TestCategoryJSONRejectsInvalid(t *testing.T) {
	for _, in := range []string{`3`, `-1`, `"GRUMPY"`, `"3.5"`} {
		var c Category
		if err := json.Unmarshal([]byte(in), &c); err == nil {
			t.Errorf("unmarshal %s: expected error, got %v", in, c)
		}
	}
}

func TestCategoryMarshalsAsName(t *testing.T) {
	b, err := json.Marshal(CategoryAngry)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"ANGRY"` {
		t.Fatalf("marshal = %s", b)
	}
}
