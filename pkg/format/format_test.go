package format

import (
	"testing"

	"github.com/google/uuid"
)

func TestDateFormatting(t *testing.T) {
	cases := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"date local", Date, "2024-03-05T10:20:30", "Mar 5, 2024"},
		{"date utc", Date, "2024-03-05T10:20:30Z", "Mar 5, 2024"},
		{"date only", Date, "2024-03-05", "Mar 5, 2024"},
		{"unparseable", Date, "not a date", "not a date"},
		{"datetime", DateTime, "2024-03-05T14:07:00", "Mar 5, 2024, 02:07 PM"},
		{"empty datetime", DateTime, "", ""},
	}
	for _, tc := range cases {
		if got := tc.fn(tc.in); got != tc.want {
			t.Fatalf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"hello world", 5, "hello..."},
		{"héllo wörld", 4, "héll..."},
	}
	for _, tc := range cases {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World!":               "hello-world",
		"  Red   Shoes -- Size 10 ": "red-shoes-size-10",
		"!!!":                        "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestInitials(t *testing.T) {
	cases := [][3]string{
		{"jane", "doe", "JD"},
		{"jane", "", "J"},
		{"élise", "östberg", "ÉÖ"},
	}
	for _, tc := range cases {
		if got := Initials(tc[0], tc[1]); got != tc[2] {
			t.Fatalf("Initials(%q, %q) = %q, want %q", tc[0], tc[1], got, tc[2])
		}
	}
}

func TestUniqueID(t *testing.T) {
	first, second := UniqueID(), UniqueID()
	if first == second {
		t.Fatalf("expected distinct ids, got %q twice", first)
	}
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("expected a uuid, got %q: %v", first, err)
	}
}
