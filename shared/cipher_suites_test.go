package shared

import "testing"

func TestParseCipherSuite(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint16
		wantErr bool
	}{
		{"by name TLS 1.3", "TLS_AES_128_GCM_SHA256", TLS_AES_128_GCM_SHA256, false},
		{"by name TLS 1.2", "TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256", TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, false},
		{"by hex", "0x1303", TLS_CHACHA20_POLY1305_SHA256, false},
		{"by hex uppercase suite", "0xcca8", TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305_SHA256, false},
		{"unknown name", "TLS_RSA_WITH_RC4_128_SHA", 0, true},
		{"hex outside the closed set", "0x000a", 0, true},
		{"garbage hex", "0xzzzz", 0, true},
		{"empty", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCipherSuite(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCipherSuite(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCipherSuite(%q) = 0x%04x, want 0x%04x", tt.input, got, tt.want)
			}
		})
	}
}

func TestCipherSuiteIVGeometry(t *testing.T) {
	// TLS 1.3 and ChaCha20 suites use a 12-byte fixed IV and no explicit
	// per-record IV; TLS 1.2 AES-GCM splits 4 implicit + 8 explicit.
	for _, info := range AllCipherSuites {
		t.Run(info.Name, func(t *testing.T) {
			switch {
			case IsTLS12AESGCMCipherSuite(info.ID):
				if info.IVLength != 4 || info.ExplicitIVLen != 8 {
					t.Errorf("IVLength=%d ExplicitIVLen=%d, want 4/8", info.IVLength, info.ExplicitIVLen)
				}
			default:
				if info.IVLength != 12 || info.ExplicitIVLen != 0 {
					t.Errorf("IVLength=%d ExplicitIVLen=%d, want 12/0", info.IVLength, info.ExplicitIVLen)
				}
			}
			if info.AuthTagLen != 16 {
				t.Errorf("AuthTagLen = %d, want 16", info.AuthTagLen)
			}
		})
	}
}

func TestCipherSuiteClassifiers(t *testing.T) {
	if !IsTLS13CipherSuite(TLS_AES_256_GCM_SHA384) {
		t.Error("TLS_AES_256_GCM_SHA384 is TLS 1.3")
	}
	if IsTLS13CipherSuite(TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256) {
		t.Error("ECDHE suite is not TLS 1.3")
	}
	if !IsChaCha20CipherSuite(TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305_SHA256) {
		t.Error("ECDHE ChaCha20 suite not classified")
	}
	if IsChaCha20CipherSuite(TLS_AES_128_GCM_SHA256) {
		t.Error("AES suite misclassified as ChaCha20")
	}
}
