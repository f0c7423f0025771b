package shaders

import (
	"errors"
	"strings"
	"testing"
)

func TestSourcesEmbedded(t *testing.T) {
	if RayTraceWGSL == "" {
		t.Fatal("raytrace source is empty")
	}
	if PresentWGSL == "" {
		t.Fatal("present source is empty")
	}
}

func TestEntryPointsDeclared(t *testing.T) {
	tests := []struct {
		src   string
		entry string
		attr  string
	}{
		{RayTraceWGSL, ComputeEntry, "@compute"},
		{PresentWGSL, VertexEntry, "@vertex"},
		{PresentWGSL, FragmentEntry, "@fragment"},
	}
	for _, tt := range tests {
		if !strings.Contains(tt.src, "fn "+tt.entry+"(") {
			t.Errorf("entry point %q not found", tt.entry)
		}
		if !strings.Contains(tt.src, tt.attr) {
			t.Errorf("stage attribute %q not found for %q", tt.attr, tt.entry)
		}
	}
}

func TestWorkgroupSizeMatchesSource(t *testing.T) {
	if !strings.Contains(RayTraceWGSL, "@workgroup_size(16, 16, 1)") {
		t.Fatal("raytrace.wgsl workgroup size does not match WorkgroupSize")
	}
	if WorkgroupSize != 16 {
		t.Fatalf("WorkgroupSize = %d, want 16", WorkgroupSize)
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
}

func TestCompileSPIRV(t *testing.T) {
	words, err := CompileSPIRV(RayTraceWGSL)
	if err != nil {
		t.Fatalf("CompileSPIRV() error: %v", err)
	}
	if len(words) == 0 {
		t.Fatal("CompileSPIRV() returned no words")
	}
	const spirvMagic = 0x07230203
	if words[0] != spirvMagic {
		t.Errorf("first word = %#x, want SPIR-V magic %#x", words[0], spirvMagic)
	}
}

func TestCompileSPIRVInvalid(t *testing.T) {
	_, err := CompileSPIRV("fn broken( {")
	if !errors.Is(err, ErrShaderCompile) {
		t.Fatalf("CompileSPIRV(invalid) error = %v, want ErrShaderCompile", err)
	}
}

func TestCompileSPIRVIsCached(t *testing.T) {
	if _, err := CompileSPIRV(PresentWGSL); err != nil {
		t.Fatal(err)
	}
	before := CacheStats()
	again, err := CompileSPIRV(PresentWGSL)
	if err != nil {
		t.Fatal(err)
	}
	after := CacheStats()
	if after.Hits != before.Hits+1 || after.Misses != before.Misses {
		t.Errorf("stats %+v -> %+v, want one more hit", before, after)
	}
	if len(again) == 0 {
		t.Error("cached compile returned no words")
	}
}

func TestCompileErrorsAreNotCached(t *testing.T) {
	for i := 0; i < 2; i++ {
		if _, err := CompileSPIRV("fn still_broken( {"); !errors.Is(err, ErrShaderCompile) {
			t.Fatalf("attempt %d: error = %v, want ErrShaderCompile", i, err)
		}
	}
}
