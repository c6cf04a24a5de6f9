package domain

import "testing"

func TestImportRowCompleteTreatsWhitespaceAsMissing(t *testing.T) {
	cases := []struct {
		row  ImportRow
		want bool
	}{
		{ImportRow{Buyer: "Ana", Town: "Senta", Address: "Glavna 1"}, true},
		{ImportRow{Buyer: "Ana", Town: "Senta", Address: "   "}, false},
		{ImportRow{Buyer: "\t", Town: "Senta", Address: "Glavna 1"}, false},
		{ImportRow{Buyer: "Ana", Town: "", Address: "Glavna 1"}, false},
	}
	for _, tc := range cases {
		if got := tc.row.Complete(); got != tc.want {
			t.Fatalf("Complete(%+v) = %v, want %v", tc.row, got, tc.want)
		}
	}
}

func TestImportRowNormalizeTrims(t *testing.T) {
	got := ImportRow{Buyer: " Ana ", Town: "\tSenta", Address: "Glavna 1 \n"}.Normalize()
	want := ImportRow{Buyer: "Ana", Town: "Senta", Address: "Glavna 1"}
	if got != want {
		t.Fatalf("Normalize() = %+v, want %+v", got, want)
	}
}
