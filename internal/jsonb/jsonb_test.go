package jsonb

import "testing"

func TestFromAndDecode(t *testing.T) {
	j, err := From(map[string]string{"twitter": "https://x.com/ghonsi"})
	if err != nil {
		t.Fatalf("from: %v", err)
	}
	var out map[string]string
	if err := j.Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out["twitter"] != "https://x.com/ghonsi" {
		t.Fatalf("unexpected value %v", out)
	}
}

func TestScanRejectsInvalid(t *testing.T) {
	var j JSON
	if err := j.Scan("{nope"); err == nil {
		t.Fatalf("expected invalid json error")
	}
	if err := j.Scan(`{"a":1}`); err != nil {
		t.Fatalf("scan string: %v", err)
	}
	v, err := j.Value()
	if err != nil || v.(string) != `{"a":1}` {
		t.Fatalf("unexpected value %v %v", v, err)
	}
	var empty JSON
	if v, _ := empty.Value(); v != nil {
		t.Fatalf("empty JSON should store NULL")
	}
}
