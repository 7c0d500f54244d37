package convert

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestIntOrNull(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		null    bool
		wantErr bool
	}{
		{in: "", null: true},
		{in: "0", want: 0},
		{in: "227006760", want: 227006760},
		{in: "-5", want: -5},
		{in: "12.5", wantErr: true},
		{in: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := IntOrNull(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("IntOrNull(%q): expected error", tt.in)
			}
			var ce *ConversionError
			if !errors.As(err, &ce) {
				t.Errorf("IntOrNull(%q): error is not a ConversionError: %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("IntOrNull(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if tt.null {
			if got != nil {
				t.Errorf("IntOrNull(%q) = %d, want null", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("IntOrNull(%q) = %v, want %d", tt.in, got, tt.want)
		}
	}
}

func TestFloatOrNull(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		null    bool
		wantErr bool
	}{
		{in: "", null: true},
		{in: "None", null: true},
		{in: "0", want: 0},
		{in: "102.5", want: 102.5},
		{in: "-180.0", want: -180},
		{in: "n/a", wantErr: true},
	}
	for _, tt := range tests {
		got, err := FloatOrNull(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("FloatOrNull(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("FloatOrNull(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if tt.null {
			if got != nil {
				t.Errorf("FloatOrNull(%q) = %v, want null", tt.in, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Errorf("FloatOrNull(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLongString(t *testing.T) {
	if got := LongString("SHORT"); got != "SHORT" {
		t.Errorf("LongString(SHORT) = %q", got)
	}
	exact := strings.Repeat("a", 255)
	if got := LongString(exact); got != exact {
		t.Errorf("LongString at limit: got %d runes, want 255", len(got))
	}
	long := strings.Repeat("b", 300)
	if got := LongString(long); len(got) != 254 {
		t.Errorf("LongString over limit: got %d runes, want 254", len(got))
	}
}

func TestRegistryOrNull(t *testing.T) {
	// Overlong raw values are null by policy, never an error.
	got, err := RegistryOrNull(strings.Repeat("9", 21))
	if err != nil || got != nil {
		t.Errorf("overlong registry: got (%v, %v), want (null, nil)", got, err)
	}

	got, err = RegistryOrNull("9074729")
	if err != nil || got == nil || *got != 9074729 {
		t.Errorf("registry 9074729: got (%v, %v)", got, err)
	}

	if _, err := RegistryOrNull("IMO12"); err == nil {
		t.Error("non-numeric registry within length: expected error")
	}

	got, err = RegistryOrNull("")
	if err != nil || got != nil {
		t.Errorf("empty registry: got (%v, %v), want (null, nil)", got, err)
	}
}

func TestTimestamp(t *testing.T) {
	got, err := Timestamp("20120315_143005")
	if err != nil {
		t.Fatalf("Timestamp: %v", err)
	}
	want := time.Date(2012, 3, 15, 14, 30, 5, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Timestamp = %v, want %v", got, want)
	}

	for _, bad := range []string{"", "2012-03-15 14:30:05", "20120315143005", "20121315_143005"} {
		if _, err := Timestamp(bad); err == nil {
			t.Errorf("Timestamp(%q): expected error", bad)
		}
	}
}
