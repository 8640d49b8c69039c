package partitionmapperadapter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMapImages_HintsAndFallback(t *testing.T) {
	paths := []string{"/tmp/x/boot.img", "/tmp/x/vendor_boot.img", "/tmp/x/weirdname.img"}

	got := MapImages(paths)

	for _, want := range []Mapping{
		{"boot", "/tmp/x/boot.img"},
		{"vendor_boot", "/tmp/x/vendor_boot.img"},
		{"weirdname", "/tmp/x/weirdname.img"},
	} {
		found := false
		for _, m := range got {
			if m == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected mapping %+v in %+v", want, got)
		}
	}
}

func TestMapImages_AmbiguousFileIsMappedTwice(t *testing.T) {
	// "vendor_boot.img" contains "boot.img", so it is planned for boot as
	// well as vendor_boot.
	got := MapImages([]string{"/fw/vendor_boot.img"})

	expected := []Mapping{
		{"boot", "/fw/vendor_boot.img"},
		{"vendor_boot", "/fw/vendor_boot.img"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected mappings (-want +got):\n%s", diff)
	}
}

func TestMapImages_TableOrder(t *testing.T) {
	paths := []string{
		"/fw/dtbo.img",
		"/fw/vendor.img",
		"/fw/System.IMG",
		"/fw/recovery.img",
		"/fw/boot.img",
	}

	got := MapImages(paths)

	expected := []Mapping{
		{"boot", "/fw/boot.img"},
		{"recovery", "/fw/recovery.img"},
		{"system", "/fw/System.IMG"},
		{"vendor", "/fw/vendor.img"},
		{"dtbo", "/fw/dtbo.img"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected mappings (-want +got):\n%s", diff)
	}
}

func TestMapImages_PurelyFallback(t *testing.T) {
	got := MapImages([]string{"/fw/super.img", "/fw/readme.txt", "/fw/modem.IMG"})

	expected := []Mapping{
		{"super", "/fw/super.img"},
		{"modem", "/fw/modem.IMG"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected mappings (-want +got):\n%s", diff)
	}
}

func TestMapImages_Empty(t *testing.T) {
	if got := MapImages(nil); len(got) != 0 {
		t.Errorf("Expected no mappings, got %+v", got)
	}
}

func TestMapper_CustomHints(t *testing.T) {
	m := &Mapper{Hints: []Hint{{"init_boot", []string{"init_boot"}}}}

	got := m.MapImages([]string{"/fw/init_boot.img", "/fw/boot.img"})

	expected := []Mapping{
		{"init_boot", "/fw/init_boot.img"},
		{"boot", "/fw/boot.img"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Unexpected mappings (-want +got):\n%s", diff)
	}
}

func TestGuessFromFilename(t *testing.T) {
	tests := []struct {
		path string
		part string
		ok   bool
	}{
		{"/a/b/Logo.img", "logo", true},
		{"cust.img", "cust", true},
		{".img", "", false},
		{"boot.img.gz", "", false},
		{"notes.txt", "", false},
	}

	for _, tt := range tests {
		part, ok := GuessFromFilename(tt.path)
		if part != tt.part || ok != tt.ok {
			t.Errorf("GuessFromFilename(%q): expected (%q, %v), got (%q, %v)", tt.path, tt.part, tt.ok, part, ok)
		}
	}
}
