package cif

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const sample = "data_one\n_a 1\nloop_\n_b\n_c\nx y\nz w\nsave_f\n_d 2\nsave_\ndata_two\n_e ?\n"

func TestDocument_Lookup(t *testing.T) {
	doc := mustResolve(t, sample, CIF11)

	one, ok := doc.Block("ONE")
	if !ok {
		t.Fatal("block one not found")
	}
	if _, ok := doc.Block("three"); ok {
		t.Error("found a block that does not exist")
	}
	if first, _ := doc.First(); first.Name != "one" {
		t.Errorf("first block = %q", first.Name)
	}

	loop, ok := one.Loop("_C")
	if !ok {
		t.Fatal("loop for _c not found")
	}
	if loop.Rows() != 2 || len(loop.Values) != len(loop.Tags)*loop.Rows() {
		t.Errorf("loop shape = %d tags %d values", len(loop.Tags), len(loop.Values))
	}
	col, _ := loop.Column("_c")
	if len(col) != 2 || col[0].Text != "y" || col[1].Text != "w" {
		t.Errorf("column _c = %v", col)
	}
	if row := loop.Row(1); row["_b"].Text != "z" {
		t.Errorf("row 1 = %v", row)
	}

	if vs, ok := one.Lookup("_b"); !ok || len(vs) != 2 {
		t.Errorf("Lookup(_b) = %v %v", vs, ok)
	}
	if vs, ok := one.Lookup("_a"); !ok || len(vs) != 1 || vs[0].Number != 1 {
		t.Errorf("Lookup(_a) = %v %v", vs, ok)
	}

	f, ok := one.Frame("F")
	if !ok {
		t.Fatal("frame f not found")
	}
	if v, _ := f.Get("_d"); v.Number != 2 {
		t.Errorf("_d = %#v", v)
	}
}

func TestDocument_Stats(t *testing.T) {
	got := mustResolve(t, sample, CIF11).Stats()
	want := Stats{Blocks: 2, Frames: 1, Items: 3, Loops: 1, Values: 7}
	if got != want {
		t.Errorf("Stats() = %+v, want %+v", got, want)
	}
}

func TestDocument_Locate(t *testing.T) {
	doc := mustResolve(t, sample, CIF11)

	tests := []struct {
		name   string
		line   int
		col    int
		tag    string
		row    int
		column int
		onName bool
		value  string
	}{
		{"item value", 2, 4, "_a", -1, -1, false, "1"},
		{"item tag", 2, 1, "_a", -1, -1, false, ""},
		{"loop cell", 7, 3, "_c", 1, 1, false, "w"},
		{"block name", 1, 6, "", -1, -1, true, ""},
		{"frame item", 9, 4, "_d", -1, -1, false, "2"},
		{"second block", 12, 4, "_e", -1, -1, false, "?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := doc.Locate(tt.line, tt.col)
			if !ok {
				t.Fatal("Locate returned false")
			}
			if loc.Tag() != tt.tag {
				t.Errorf("tag = %q, want %q", loc.Tag(), tt.tag)
			}
			if loc.Row != tt.row || loc.Column != tt.column {
				t.Errorf("cell = %d,%d want %d,%d", loc.Row, loc.Column, tt.row, tt.column)
			}
			if loc.OnName != tt.onName {
				t.Errorf("OnName = %v", loc.OnName)
			}
			switch {
			case tt.value == "" && loc.Value != nil:
				t.Errorf("value = %v, want none", loc.Value)
			case tt.value != "" && (loc.Value == nil || loc.Value.String() != tt.value):
				t.Errorf("value = %v, want %s", loc.Value, tt.value)
			}
			if !loc.Span.Contains(tt.line, tt.col) {
				t.Errorf("span %v does not contain %d:%d", loc.Span, tt.line, tt.col)
			}
		})
	}

	if _, ok := doc.Locate(40, 1); ok {
		t.Error("located a position past the end")
	}
}

func TestDocument_LocateImplicitBlock(t *testing.T) {
	doc := mustResolve(t, "_a 1\n_b 2\ndata_x\n_c 3\n", CIF11)
	if !doc.Blocks[0].Implicit || doc.Blocks[1].Implicit {
		t.Fatalf("implicit flags = %v, %v", doc.Blocks[0].Implicit, doc.Blocks[1].Implicit)
	}

	tests := []struct {
		name string
		line int
		col  int
		tag  string
	}{
		{"first character", 1, 1, "_a"},
		{"first value", 1, 4, "_a"},
		{"second item", 2, 1, "_b"},
		{"named block", 4, 1, "_c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, ok := doc.Locate(tt.line, tt.col)
			if !ok {
				t.Fatal("Locate returned false")
			}
			if loc.OnName || loc.Item == nil || loc.Tag() != tt.tag {
				t.Errorf("Locate(%d,%d) = onName %v item %v, want item %s", tt.line, tt.col, loc.OnName, loc.Item, tt.tag)
			}
		})
	}

	if loc, ok := doc.Locate(3, 6); !ok || !loc.OnName || loc.Block.Name != "x" {
		t.Errorf("named block heading = %+v %v", loc, ok)
	}
}

func TestDocument_LocateNested(t *testing.T) {
	doc := mustResolve(t, marker+"data_x\n_l [1 [2 3]]\n_t {'k':[4]}\n", DialectAuto)

	loc, ok := doc.Locate(3, 8)
	if !ok || loc.Value == nil {
		t.Fatalf("Locate = %+v %v", loc, ok)
	}
	if !reflect.DeepEqual(loc.Path, []string{"[1]", "[0]"}) || loc.Value.Number != 2 {
		t.Errorf("path = %v value = %v", loc.Path, loc.Value)
	}

	loc, _ = doc.Locate(4, 10)
	if !reflect.DeepEqual(loc.Path, []string{"{k}", "[0]"}) || loc.Value.Number != 4 {
		t.Errorf("path = %v value = %v", loc.Path, loc.Value)
	}
}

func TestDocument_Marshal(t *testing.T) {
	doc := mustResolve(t, marker+"data_x\n_a 7.470(6)\n_t {'z':1 'a':2}\n", DialectAuto)

	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("json.Marshal error = %v", err)
	}
	js := string(data)
	for _, want := range []string{`"dialect":"cif2"`, `"kind":"numeric_su"`, `"uncertainty":0.006`, `"items":[`} {
		if !strings.Contains(js, want) {
			t.Errorf("JSON missing %s:\n%s", want, js)
		}
	}
	if strings.Index(js, `"key":"z"`) > strings.Index(js, `"key":"a"`) {
		t.Error("table entries lost source order")
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		t.Fatalf("yaml.Marshal error = %v", err)
	}
	ys := string(out)
	for _, want := range []string{"dialect: cif2", "kind: numeric_su", "tag: _a"} {
		if !strings.Contains(ys, want) {
			t.Errorf("YAML missing %q:\n%s", want, ys)
		}
	}
}

func TestStrategyTable(t *testing.T) {
	for _, c := range Constructs() {
		if StrategyFor(CIF11, c) == Reject {
			t.Errorf("CIF 1.1 rejects %s", c)
		}
		_, hasRule := RuleFor(c)
		if rejects := StrategyFor(CIF20, c) == Reject; rejects != hasRule {
			t.Errorf("%s: CIF 2.0 reject = %v, rule = %v", c, rejects, hasRule)
		}
		if StrategyFor(DialectAuto, c) != StrategyFor(CIF11, c) {
			t.Errorf("%s: auto differs from CIF 1.1", c)
		}
	}
	for _, r := range Rules() {
		if StrategyFor(CIF20, r.Construct) != Reject {
			t.Errorf("rule %s names a construct CIF 2.0 accepts", r.ID)
		}
	}
	if StrategyFor(CIF20, ConstructList) != Transform || StrategyFor(CIF11, ConstructTextField) != PassThrough {
		t.Error("unexpected table contents")
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in      string
		want    Dialect
		wantErr bool
	}{
		{"auto", DialectAuto, false},
		{"", DialectAuto, false},
		{"CIF1", CIF11, false},
		{"1.1", CIF11, false},
		{"cif2", CIF20, false},
		{" 2.0 ", CIF20, false},
		{"cif3", DialectAuto, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDetectDialect(t *testing.T) {
	tests := []struct {
		src  string
		want Dialect
	}{
		{"#\\#CIF_2.0\ndata_x\n", CIF20},
		{"\uFEFF#\\#CIF_2.0\n", CIF20},
		{"\n  #\\#CIF_2.0\n", CIF20},
		{"#\\#CIF_1.1\ndata_x\n", CIF11},
		{"data_x\n#\\#CIF_2.0\n", CIF11},
		{"", CIF11},
	}
	for _, tt := range tests {
		if got := DetectDialect(tt.src); got != tt.want {
			t.Errorf("DetectDialect(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}
