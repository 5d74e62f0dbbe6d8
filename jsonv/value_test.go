package jsonv

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_PreservesMemberOrder(t *testing.T) {
	v, err := ParseString(`{"z":1,"a":{"y":true,"b":null},"m":["x",2.5]}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if !v.IsObject() || len(v.Members) != 3 {
		t.Fatalf("expected object with 3 members, got %s", v.Kind)
	}
	keys := []string{v.Members[0].Key, v.Members[1].Key, v.Members[2].Key}
	if keys[0] != "z" || keys[1] != "a" || keys[2] != "m" {
		t.Fatalf("member order lost: %v", keys)
	}
	if got := v.Text(); got != `{"z":1,"a":{"y":true,"b":null},"m":["x",2.5]}` {
		t.Fatalf("unexpected text %s", got)
	}
}

func TestParse_TrailingData(t *testing.T) {
	if _, err := ParseString(`{"a":1} {"b":2}`); err == nil {
		t.Fatalf("expected trailing data error")
	}
	if _, err := ParseString(`{"a":`); err == nil {
		t.Fatalf("expected truncated document error")
	}
	if _, err := ParseString(""); err == nil {
		t.Fatalf("expected error on empty input")
	}
}

func TestText_DoesNotEscapeHTML(t *testing.T) {
	v, err := ParseString(`{"price":"$360,000 <b>&</b>","note":"line\nbreak \"q\""}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := `{"price":"$360,000 <b>&</b>","note":"line\nbreak \"q\""}`
	if got := v.Text(); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestGetAndPath(t *testing.T) {
	v, err := ParseString(`{"props":{"urqlState":{"k":{"data":"x"}}},"dup":1,"dup":2}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if d := v.Path("props", "urqlState", "k", "data"); d == nil || d.Str != "x" {
		t.Fatalf("path lookup failed")
	}
	if v.Path("props", "missing", "data") != nil {
		t.Fatalf("expected nil for missing path")
	}
	if n, ok := v.Get("dup").Int(); !ok || n != 2 {
		t.Fatalf("expected last duplicate to win, got %d", n)
	}
}

func TestInt(t *testing.T) {
	v, _ := ParseString(`[3, 2.9, "4"]`)
	if n, ok := v.Items[0].Int(); !ok || n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if n, ok := v.Items[1].Int(); !ok || n != 2 {
		t.Fatalf("expected truncated 2, got %d", n)
	}
	if _, ok := v.Items[2].Int(); ok {
		t.Fatalf("string should not convert via Int")
	}
}

func TestParse_RejectsDeepNesting(t *testing.T) {
	_, err := ParseString(strings.Repeat("[", 8_000_000))
	if !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep, got %v", err)
	}

	ok := strings.Repeat("[", MaxNesting) + strings.Repeat("]", MaxNesting)
	if _, err := ParseString(ok); err != nil {
		t.Fatalf("expected nesting at the limit to parse, got %v", err)
	}
	if _, err := ParseString("[" + ok + "]"); !errors.Is(err, ErrTooDeep) {
		t.Fatalf("expected ErrTooDeep one past the limit, got %v", err)
	}
}
