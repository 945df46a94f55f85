package output

import (
	"strings"
	"testing"

	"github.com/tetherci/tether/internal/ovirt"
)

func testVMs() []ovirt.VM {
	return []ovirt.VM{
		{ID: "aaa-111", Name: "builder-01", State: ovirt.StateUp},
		{ID: "bbb-222", Name: "builder-02", State: ovirt.StateDown},
		{ID: "ccc-333", Name: "builder-03", State: ovirt.StateImageLocked},
	}
}

func TestTableFormatter_FormatVMList(t *testing.T) {
	tests := []struct {
		name       string
		vms        []ovirt.VM
		noHeaders  bool
		wantCount  int
		wantHeader bool
	}{
		{
			name:      "empty list",
			vms:       nil,
			wantCount: 0,
		},
		{
			name:       "single VM",
			vms:        testVMs()[:1],
			wantCount:  1,
			wantHeader: true,
		},
		{
			name:       "multiple VMs",
			vms:        testVMs(),
			wantCount:  3,
			wantHeader: true,
		},
		{
			name:       "no headers",
			vms:        testVMs()[:1],
			noHeaders:  true,
			wantCount:  1,
			wantHeader: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter := &TableFormatter{NoHeaders: tt.noHeaders}
			output, err := formatter.FormatVMList(tt.vms)
			if err != nil {
				t.Fatalf("FormatVMList() error = %v", err)
			}

			if tt.wantCount == 0 {
				if !strings.Contains(output, "No VMs found") {
					t.Errorf("expected 'No VMs found' message, got: %s", output)
				}
				return
			}

			hasHeader := strings.Contains(output, "NAME") && strings.Contains(output, "STATE")
			if tt.wantHeader && !hasHeader {
				t.Errorf("expected header in output, got: %s", output)
			}
			if !tt.wantHeader && hasHeader {
				t.Errorf("expected no header in output, got: %s", output)
			}

			lines := strings.Split(strings.TrimSpace(output), "\n")
			expectedLines := tt.wantCount
			if tt.wantHeader {
				expectedLines++ // Add 1 for header
			}
			if len(lines) != expectedLines {
				t.Errorf("expected %d lines, got %d: %s", expectedLines, len(lines), output)
			}
		})
	}
}

func TestYAMLFormatter_FormatVMList(t *testing.T) {
	formatter := &YAMLFormatter{}

	output, err := formatter.FormatVMList(nil)
	if err != nil {
		t.Fatalf("FormatVMList() error = %v", err)
	}
	if output != "" {
		t.Errorf("expected empty output for empty list, got: %s", output)
	}

	output, err = formatter.FormatVMList(testVMs())
	if err != nil {
		t.Fatalf("FormatVMList() error = %v", err)
	}

	requiredFields := []string{
		"name: builder-01",
		"id: aaa-111",
		"state: up",
		"state: down",
		"state: image_locked",
	}
	for _, field := range requiredFields {
		if !strings.Contains(output, field) {
			t.Errorf("output missing required field %q: %s", field, output)
		}
	}
}

func TestJSONFormatter_FormatVMList(t *testing.T) {
	formatter := &JSONFormatter{}

	output, err := formatter.FormatVMList(nil)
	if err != nil {
		t.Fatalf("FormatVMList() error = %v", err)
	}
	if output != "[]\n" {
		t.Errorf("expected %q for empty list, got: %q", "[]\n", output)
	}

	output, err = formatter.FormatVMList(testVMs())
	if err != nil {
		t.Fatalf("FormatVMList() error = %v", err)
	}

	if !strings.HasPrefix(strings.TrimSpace(output), "[") {
		t.Errorf("expected output to start with '[': %s", output)
	}

	requiredFields := []string{
		`"name": "builder-01"`,
		`"id": "aaa-111"`,
		`"state": "up"`,
	}
	for _, field := range requiredFields {
		if !strings.Contains(output, field) {
			t.Errorf("output missing required field %q: %s", field, output)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{
			name: "table format",
			opts: Options{Format: FormatTable},
		},
		{
			name: "yaml format",
			opts: Options{Format: FormatYAML},
		},
		{
			name: "json format",
			opts: Options{Format: FormatJSON},
		},
		{
			name:    "invalid format",
			opts:    Options{Format: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formatter, err := NewFormatter(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewFormatter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && formatter == nil {
				t.Error("NewFormatter() returned nil formatter")
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		wantErr bool
	}{
		{
			name:   "valid table",
			format: "table",
		},
		{
			name:   "valid yaml",
			format: "yaml",
		},
		{
			name:   "valid json",
			format: "json",
		},
		{
			name:    "invalid format",
			format:  "xml",
			wantErr: true,
		},
		{
			name:    "empty format",
			format:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFormat(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFormat() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
