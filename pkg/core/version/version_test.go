package version

import (
	"regexp"
	"testing"
)

// semverRegex validates semantic versioning format
var semverRegex = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

func TestVersionConstants(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"Toolkit", Toolkit},
		{"Syntax", Syntax},
		{"Raw", Raw},
		{"Resolver", Resolver},
		{"CLI", CLI},
		{"Store", Store},
		{"Viewer", Viewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !semverRegex.MatchString(tt.version) {
				t.Errorf("%s version %q is not valid semver", tt.name, tt.version)
			}
		})
	}
}

func TestComponentVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"syntax", Syntax},
		{"raw", Raw},
		{"resolver", Resolver},
		{"cli", CLI},
		{"cifcheck", CLI},
		{"store", Store},
		{"viewer", Viewer},
		{"unknown", Toolkit},
		{"", Toolkit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComponentVersion(tt.name); got != tt.expected {
				t.Errorf("ComponentVersion(%q) = %q, want %q", tt.name, got, tt.expected)
			}
		})
	}
}

func TestComponentsCovered(t *testing.T) {
	for _, name := range Components() {
		if ComponentVersion(name) == "" {
			t.Errorf("component %q has no version", name)
		}
	}
	if StoreSchema < 1 {
		t.Errorf("StoreSchema = %d, want >= 1", StoreSchema)
	}
}
