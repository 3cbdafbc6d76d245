package geoip

import "testing"

func TestLookupCountryWithoutDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init(""); err != nil {
		t.Fatalf("Init: %v", err)
	}

	tests := []struct {
		ip   string
		want string
	}{
		{"192.168.1.10", "LOCAL"},
		{"10.0.0.1", "LOCAL"},
		{"127.0.0.1", "LOCAL"},
		{"8.8.8.8", ""}, // No database loaded
		{"not-an-ip", ""},
		{"", ""},
	}

	for _, tt := range tests {
		if got := g.LookupCountry(tt.ip); got != tt.want {
			t.Errorf("LookupCountry(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
}

func TestLookupNotInitialized(t *testing.T) {
	g := NewLookup()
	if got := g.LookupCountry("192.168.1.1"); got != "" {
		t.Errorf("LookupCountry before Init = %q, want empty", got)
	}
}

func TestInitMissingDatabase(t *testing.T) {
	g := NewLookup()
	if err := g.Init("/nonexistent/GeoLite2-Country.mmdb"); err == nil {
		t.Error("Init with missing file should return an error")
	}
	if g.IsEnabled() {
		t.Error("lookup should be disabled after failed Init")
	}
}

func TestCountryName(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"GB", "United Kingdom"},
		{"LOCAL", "Local Network"},
		{"", "Unknown"},
		{"XX", "XX"},
	}

	for _, tt := range tests {
		if got := CountryName(tt.code); got != tt.want {
			t.Errorf("CountryName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestParseClient(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		deviceType string
	}{
		{
			name:       "iphone safari",
			ua:         "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
			deviceType: "mobile",
		},
		{
			name:       "desktop chrome",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			deviceType: "desktop",
		},
		{
			name:       "googlebot",
			ua:         "Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)",
			deviceType: "bot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseClient(tt.ua)
			if info.DeviceType != tt.deviceType {
				t.Errorf("DeviceType = %q, want %q", info.DeviceType, tt.deviceType)
			}
			if info.Browser == "" {
				t.Error("Browser should not be empty")
			}
		})
	}
}

func TestParseClientEmpty(t *testing.T) {
	info := ParseClient("")
	if info.Browser != "Unknown" || info.OS != "Unknown" {
		t.Errorf("empty UA should parse to Unknown, got %+v", info)
	}
}
