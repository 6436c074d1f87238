package media

import (
	"strings"
	"testing"
)

func TestNewKey(t *testing.T) {
	key := NewKey(PrefixProductThumbs, "prod-42", "photo.JPG")

	if !strings.HasPrefix(key, PrefixProductThumbs+"/prod-42/") {
		t.Errorf("key %q missing prefix/owner segments", key)
	}
	if !strings.HasSuffix(key, ".jpg") {
		t.Errorf("key %q should keep a lowercased extension", key)
	}
	if PrefixOf(key) != PrefixProductThumbs {
		t.Errorf("PrefixOf(%q) = %q, want %q", key, PrefixOf(key), PrefixProductThumbs)
	}
	if OwnerOf(key) != "prod-42" {
		t.Errorf("OwnerOf(%q) = %q, want %q", key, OwnerOf(key), "prod-42")
	}
}

func TestNewKeyUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		key := NewKey(PrefixProductGallery, "prod-1", "img.png")
		if seen[key] {
			t.Fatalf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestPrefixOf(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"gallery key", "products/gallery/p1/123-abc.jpg", PrefixProductGallery},
		{"product thumb", "products/thumbs/p1/123-abc.jpg", PrefixProductThumbs},
		{"category thumb", "categories/thumbs/c1/123-abc.png", PrefixCategoryThumbs},
		{"unmanaged prefix", "invoices/2024/receipt.pdf", ""},
		{"external url", "https://cdn.example.com/img.jpg", ""},
		{"bare prefix", "products/gallery", ""},
		{"prefix with trailing slash only", "products/gallery/", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrefixOf(tt.key); got != tt.want {
				t.Errorf("PrefixOf(%q) = %q, want %q", tt.key, got, tt.want)
			}
			if got := HasManagedPrefix(tt.key); got != (tt.want != "") {
				t.Errorf("HasManagedPrefix(%q) = %v, want %v", tt.key, got, tt.want != "")
			}
		})
	}
}

func TestOwnerOf(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"valid", "products/gallery/p7/999-zz.webp", "p7"},
		{"missing file segment", "products/gallery/p7", ""},
		{"unmanaged", "other/p7/file.jpg", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OwnerOf(tt.key); got != tt.want {
				t.Errorf("OwnerOf(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestManagedPrefixesCopy(t *testing.T) {
	prefixes := ManagedPrefixes()
	prefixes[0] = "tampered"
	if ManagedPrefixes()[0] != PrefixProductGallery {
		t.Error("ManagedPrefixes must return a copy")
	}
}
