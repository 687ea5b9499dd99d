package main

import (
	"reflect"
	"sort"
	"testing"

	"github.com/BurntSushi/xgb/xproto"
)

type fakeTagEnv struct {
	tags    map[string]ClientSet
	sticky  ClientSet
	all     ClientSet
	current ClientSet
}

func (e fakeTagEnv) Tagged(name string) ClientSet {
	if set, ok := e.tags[name]; ok {
		return set
	}
	return ClientSet{}
}
func (e fakeTagEnv) Sticky() ClientSet  { return e.sticky }
func (e fakeTagEnv) All() ClientSet     { return e.all }
func (e fakeTagEnv) Current() ClientSet { return e.current }

func set(ws ...xproto.Window) ClientSet {
	s := make(ClientSet)
	for _, w := range ws {
		s[w] = struct{}{}
	}
	return s
}

func windows(s ClientSet) []int {
	out := []int{}
	for w := range s {
		out = append(out, int(w))
	}
	sort.Ints(out)
	return out
}

func TestParseTagSpecErrors(t *testing.T) {
	for _, spec := range []string{
		"",
		"(work",
		"work)",
		"work |",
		"| work",
		"work ~",
		"a b",
		"~",
	} {
		if _, err := ParseTagSpec(spec); err == nil {
			t.Errorf("ParseTagSpec(%q): expected error", spec)
		}
	}
}

func TestParseUnparseRoundTrip(t *testing.T) {
	specs := []string{
		"work",
		"work | mail",
		`work \ docs | mail`,
		"~0",
		"~(a | b) & c",
		"a & b & c",
		"a | b | c",
		". & work",
		"* | 0",
		"~~a",
		"(a|b)&(c\\d)",
	}
	for _, spec := range specs {
		e1, err := ParseTagSpec(spec)
		if err != nil {
			t.Fatalf("ParseTagSpec(%q): %v", spec, err)
		}
		e2, err := ParseTagSpec(Unparse(e1))
		if err != nil {
			t.Fatalf("reparse of %q (from %q): %v", Unparse(e1), spec, err)
		}
		if !reflect.DeepEqual(e1, e2) {
			t.Errorf("round trip of %q: %#v != %#v", spec, e1, e2)
		}
		if Unparse(e1) != Unparse(e2) {
			t.Errorf("canonical form of %q unstable: %q vs %q",
				spec, Unparse(e1), Unparse(e2))
		}
	}
}

func TestPrecedence(t *testing.T) {
	// Lowest to highest: | \ & ~, binary ops left-associative.
	for spec, want := range map[string]string{
		`a | b \ c`:  `(a | (b \ c))`,
		`a \ b & c`:  `(a \ (b & c))`,
		"a & ~b":     "(a & ~(b))",
		"a | b | c":  "((a | b) | c)",
		`~a \ b`:     `(~(a) \ b)`,
		"~(a | b)":   "~((a | b))",
	} {
		e, err := ParseTagSpec(spec)
		if err != nil {
			t.Fatalf("ParseTagSpec(%q): %v", spec, err)
		}
		if got := Unparse(e); got != want {
			t.Errorf("Unparse(parse(%q)) = %q, want %q", spec, got, want)
		}
	}
}

// The three-client scenario: A=work, B=work docs, C=mail.
func testEnv() fakeTagEnv {
	const a, b, c = 1, 2, 3
	return fakeTagEnv{
		tags: map[string]ClientSet{
			"work": set(a, b),
			"docs": set(b),
			"mail": set(c),
		},
		sticky:  set(),
		all:     set(a, b, c),
		current: set(a, b, c),
	}
}

func evalSpec(t *testing.T, env TagEnv, spec string) ClientSet {
	t.Helper()
	e, err := ParseTagSpec(spec)
	if err != nil {
		t.Fatalf("ParseTagSpec(%q): %v", spec, err)
	}
	return e.Eval(env)
}

func TestEvalScenario(t *testing.T) {
	env := testEnv()
	got := evalSpec(t, env, `work \ docs | mail`)
	if want := []int{1, 3}; !reflect.DeepEqual(windows(got), want) {
		t.Errorf(`eval(work \ docs | mail) = %v, want %v`, windows(got), want)
	}
}

func TestEvalSticky(t *testing.T) {
	// A sticky client appears in every plain tag atom's result, even
	// for tags no client carries.
	env := testEnv()
	env.sticky = set(4)
	env.all = set(1, 2, 3, 4)

	if got := windows(evalSpec(t, env, "mail")); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("eval(mail) = %v, want [3 4]", got)
	}
	if got := windows(evalSpec(t, env, "nothing-has-this")); !reflect.DeepEqual(got, []int{4}) {
		t.Errorf("eval(nothing-has-this) = %v, want [4]", got)
	}
	// But not in the empty set.
	if got := windows(evalSpec(t, env, "0")); len(got) != 0 {
		t.Errorf("eval(0) = %v, want empty", got)
	}
}

func TestEvalComplementUniverse(t *testing.T) {
	// ~0 is the whole universe; * is only the sticky clients. With
	// untagged clients present the two differ.
	env := testEnv()
	env.sticky = set(1)
	env.all = set(1, 2, 3, 9) // 9 is untagged

	notEmpty := windows(evalSpec(t, env, "~0"))
	if want := []int{1, 2, 3, 9}; !reflect.DeepEqual(notEmpty, want) {
		t.Errorf("eval(~0) = %v, want %v", notEmpty, want)
	}
	sticky := windows(evalSpec(t, env, "*"))
	if want := []int{1}; !reflect.DeepEqual(sticky, want) {
		t.Errorf("eval(*) = %v, want %v", sticky, want)
	}
}

func TestEvalCurrent(t *testing.T) {
	env := testEnv()
	env.current = set(2)
	if got := windows(evalSpec(t, env, ". | mail")); !reflect.DeepEqual(got, []int{2, 3}) {
		t.Errorf("eval(. | mail) = %v, want [2 3]", got)
	}
}

func TestEvalOperators(t *testing.T) {
	env := testEnv()
	cases := []struct {
		spec string
		want []int
	}{
		{"work & docs", []int{2}},
		{`work \ docs`, []int{1}},
		{"~work", []int{3}},
		{"~mail & work", []int{1, 2}},
		{"(work | mail) & ~docs", []int{1, 3}},
		{"~(work | mail)", []int{}},
	}
	for _, tc := range cases {
		if got := windows(evalSpec(t, env, tc.spec)); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("eval(%s) = %v, want %v", tc.spec, got, tc.want)
		}
	}
}

func TestEvalIdempotent(t *testing.T) {
	env := testEnv()
	first := evalSpec(t, env, `work \ docs`)
	second := evalSpec(t, env, `work \ docs`)
	if !reflect.DeepEqual(windows(first), windows(second)) {
		t.Errorf("same spec evaluated twice differs: %v vs %v",
			windows(first), windows(second))
	}
}
