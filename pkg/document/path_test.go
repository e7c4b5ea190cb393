package document

import (
	"testing"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Token
	}{
		{
			name: "simple keys",
			raw:  "data.name",
			want: []Token{{Key: "data"}, {Key: "name"}},
		},
		{
			name: "bracketed index",
			raw:  "data.tags[0]",
			want: []Token{{Key: "data"}, {Key: "tags"}, {Index: 0, IsIdx: true}},
		},
		{
			name: "dotted numeric index",
			raw:  "data.tags.2",
			want: []Token{{Key: "data"}, {Key: "tags"}, {Index: 2, IsIdx: true}},
		},
		{
			name: "nested lorebook entry",
			raw:  "data.character_book.entries[3].keys",
			want: []Token{{Key: "data"}, {Key: "character_book"}, {Key: "entries"}, {Index: 3, IsIdx: true}, {Key: "keys"}},
		},
		{
			name: "empty path",
			raw:  "",
			want: []Token{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePath(tt.raw)
			if len(got) != len(tt.want) {
				t.Fatalf("ParsePath(%q) = %d tokens, want %d", tt.raw, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func sampleDoc() Document {
	return Document{
		"name": "A",
		"tags": []interface{}{"x"},
		"data": map[string]interface{}{
			"description": "hello",
			"entries": []interface{}{
				map[string]interface{}{"keys": []interface{}{"k1"}},
			},
		},
		"null_field": nil,
	}
}

func TestGet(t *testing.T) {
	doc := sampleDoc()

	tests := []struct {
		name   string
		path   string
		want   interface{}
		wantOK bool
	}{
		{"top level", "name", "A", true},
		{"array element", "tags[0]", "x", true},
		{"nested key", "data.description", "hello", true},
		{"deep nested", "data.entries[0].keys[0]", "k1", true},
		{"explicit null", "null_field", nil, true},
		{"missing key", "missing", nil, false},
		{"missing nested", "data.missing.deeper", nil, false},
		{"index out of range", "tags[5]", nil, false},
		{"index into object treated as key", "data[0]", nil, false},
		{"traverse through primitive", "name.sub", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Get(doc, ParsePath(tt.path))
			if ok != tt.wantOK {
				t.Fatalf("Get(%q) ok = %v, want %v", tt.path, ok, tt.wantOK)
			}
			if ok && !Equal(got, tt.want) {
				t.Errorf("Get(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestSetExistingPaths(t *testing.T) {
	doc := sampleDoc()

	if !Set(doc, ParsePath("name"), "B", true) {
		t.Fatal("Set on existing key failed")
	}
	if got, _ := GetByString(doc, "name"); got != "B" {
		t.Errorf("name = %v, want B", got)
	}

	if !Set(doc, ParsePath("data.entries[0].keys[0]"), "k2", true) {
		t.Fatal("Set on nested path failed")
	}
	if got, _ := GetByString(doc, "data.entries[0].keys[0]"); got != "k2" {
		t.Errorf("nested = %v, want k2", got)
	}
}

func TestSetArrayAppend(t *testing.T) {
	// The concrete scenario: {name:"A", tags:["x"]} + set tags[1]="y".
	doc := Document{"name": "A", "tags": []interface{}{"x"}}

	if !SetByString(doc, "tags[1]", "y", true) {
		t.Fatal("Set tags[1] failed")
	}

	want := Document{"name": "A", "tags": []interface{}{"x", "y"}}
	if !Equal(doc, want) {
		t.Errorf("doc = %v, want %v", doc, want)
	}
}

func TestSetAutoVivify(t *testing.T) {
	doc := Document{"name": "A"}

	if !SetByString(doc, "meta.count", 3, true) {
		t.Fatal("Set meta.count failed")
	}
	if got, ok := GetByString(doc, "meta.count"); !ok || !Equal(got, 3) {
		t.Errorf("meta.count = %v (ok=%v), want 3", got, ok)
	}

	// Numeric next segment vivifies an array.
	if !SetByString(doc, "list[0].id", "e1", true) {
		t.Fatal("Set list[0].id failed")
	}
	if _, isSlice := doc["list"].([]interface{}); !isSlice {
		t.Errorf("list vivified as %T, want []interface{}", doc["list"])
	}
	if got, _ := GetByString(doc, "list[0].id"); got != "e1" {
		t.Errorf("list[0].id = %v, want e1", got)
	}
}

func TestSetReplacesPrimitiveIntermediate(t *testing.T) {
	doc := Document{"meta": "just a string"}

	if !SetByString(doc, "meta.count", 1, true) {
		t.Fatal("Set through primitive failed")
	}
	if got, ok := GetByString(doc, "meta.count"); !ok || !Equal(got, 1) {
		t.Errorf("meta.count = %v (ok=%v), want 1", got, ok)
	}
}

func TestSetCheckedReportsReplacement(t *testing.T) {
	doc := Document{"meta": "just a string"}

	ok, replaced := SetChecked(doc, ParsePath("meta.count"), 1, true)
	if !ok || !replaced {
		t.Errorf("SetChecked = (%v, %v), want (true, true)", ok, replaced)
	}

	// Missing and null intermediates vivify without a replacement report.
	ok, replaced = SetChecked(doc, ParsePath("fresh.count"), 1, true)
	if !ok || replaced {
		t.Errorf("SetChecked on missing = (%v, %v), want (true, false)", ok, replaced)
	}
	doc["gap"] = nil
	ok, replaced = SetChecked(doc, ParsePath("gap.count"), 1, true)
	if !ok || replaced {
		t.Errorf("SetChecked on null = (%v, %v), want (true, false)", ok, replaced)
	}

	// Primitive array elements report too.
	doc["tags"] = []interface{}{"plain"}
	ok, replaced = SetChecked(doc, ParsePath("tags[0].label"), "x", true)
	if !ok || !replaced {
		t.Errorf("SetChecked on primitive element = (%v, %v), want (true, true)", ok, replaced)
	}
}

func TestSetNoAutoCreate(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		path string
	}{
		{"missing intermediate", Document{"name": "A"}, "meta.count"},
		{"primitive intermediate", Document{"meta": 7}, "meta.count"},
		{"null intermediate", Document{"meta": nil}, "meta.count"},
		{"index past array end", Document{"tags": []interface{}{"x"}}, "tags[4]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := Clone(tt.doc)
			if Set(tt.doc, ParsePath(tt.path), "v", false) {
				t.Fatalf("Set(%q, autoCreate=false) succeeded, want abort", tt.path)
			}
			if !Equal(tt.doc, before) {
				t.Errorf("document modified by aborted set: %v, want %v", tt.doc, before)
			}
		})
	}
}

func TestSetFinalSegmentOverwrites(t *testing.T) {
	doc := Document{"data": map[string]interface{}{"nested": map[string]interface{}{"deep": true}}}

	// Final assignment replaces containers too, and even with autoCreate off.
	if !SetByString(doc, "data.nested", "flat", false) {
		t.Fatal("Set final segment failed")
	}
	if got, _ := GetByString(doc, "data.nested"); got != "flat" {
		t.Errorf("data.nested = %v, want flat", got)
	}
}
