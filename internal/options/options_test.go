package options

import "testing"

func TestDefault(t *testing.T) {
	o := Default()
	if !o.OptimizeImages || !o.RemoveMetadata || o.Grayscale {
		t.Errorf("unexpected default flags: %+v", o)
	}
	if o.ImageQuality != 80 {
		t.Errorf("ImageQuality = %d, want 80", o.ImageQuality)
	}
	if o.CompressionLevel != 3 {
		t.Errorf("CompressionLevel = %d, want 3", o.CompressionLevel)
	}
	if err := o.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestMerge_PartialInheritsCurrent(t *testing.T) {
	base := Default()
	base.Grayscale = true

	got := base.Merge(Override{ImageQuality: Int(50)})
	want := base
	want.ImageQuality = 50
	if got != want {
		t.Errorf("Merge = %+v, want %+v", got, want)
	}
}

func TestMerge_Idempotent(t *testing.T) {
	ov := Override{ImageQuality: Int(50)}
	once := Default().Merge(ov)
	twice := once.Merge(ov)
	if once != twice {
		t.Errorf("merging twice changed result: %+v vs %+v", once, twice)
	}
}

func TestMerge_ComposesLastWriteWins(t *testing.T) {
	o := Default().
		Merge(Override{ImageQuality: Int(40), Grayscale: Bool(true)}).
		Merge(Override{ImageQuality: Int(60)}).
		Merge(Override{OptimizeImages: Bool(false)})

	if o.ImageQuality != 60 {
		t.Errorf("ImageQuality = %d, want 60", o.ImageQuality)
	}
	if !o.Grayscale {
		t.Error("Grayscale should survive later partial updates")
	}
	if o.OptimizeImages {
		t.Error("OptimizeImages should be false")
	}
	if !o.RemoveMetadata || o.CompressionLevel != 3 {
		t.Errorf("untouched fields changed: %+v", o)
	}
}

func TestMerge_FalseIsAValue(t *testing.T) {
	o := Default().Merge(Override{RemoveMetadata: Bool(false)})
	if o.RemoveMetadata {
		t.Error("explicit false must override a true default")
	}
}

func TestOverride_IsZero(t *testing.T) {
	if !(Override{}).IsZero() {
		t.Error("empty override should be zero")
	}
	if (Override{Grayscale: Bool(false)}).IsZero() {
		t.Error("override with a set field should not be zero")
	}
}

func TestValidate_Ranges(t *testing.T) {
	tests := []struct {
		name    string
		quality int
		level   int
		wantErr bool
	}{
		{"min bounds", 1, 1, false},
		{"max bounds", 100, 5, false},
		{"quality zero", 0, 3, true},
		{"quality too high", 101, 3, true},
		{"level zero", 80, 0, true},
		{"level too high", 80, 6, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Default()
			o.ImageQuality = tt.quality
			o.CompressionLevel = tt.level
			err := o.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
