package domain

import "testing"

func TestParseViewType(t *testing.T) {
	cases := []struct {
		in   string
		want ViewType
		ok   bool
	}{
		{"front", ViewFront, true},
		{" Back ", ViewBack, true},
		{"SIDE", ViewSide, true},
		{"top", ViewTop, true},
		{"bottom", ViewBottom, true},
		{"diagonal", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := ParseViewType(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseViewType(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestBatchView(t *testing.T) {
	b := &RevisionBatch{Views: []ViewRecord{
		{ViewType: ViewFront, ImageURL: "f"},
		{ViewType: ViewSide, ImageURL: "s"},
	}}
	if rec := b.View(ViewSide); rec == nil || rec.ImageURL != "s" {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec := b.View(ViewBottom); rec != nil {
		t.Fatalf("expected nil for absent view, got %+v", rec)
	}
}
