package magic

import (
	"bytes"
	"testing"

	"github.com/ch1y1z1/insert-dylib/pkg/macho"
)

func TestRead(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    macho.Magic
		wantErr bool
	}{
		{"macho64", []byte{0xcf, 0xfa, 0xed, 0xfe, 0x07}, macho.Magic64, false},
		{"macho32", []byte{0xce, 0xfa, 0xed, 0xfe}, macho.Magic32, false},
		{"fat on disk", []byte{0xca, 0xfe, 0xba, 0xbe}, macho.MagicFatLE, false},
		{"fat swapped on disk", []byte{0xbe, 0xba, 0xfe, 0xca}, macho.MagicFatBE, false},
		{"short", []byte{0xcf, 0xfa}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(bytes.NewReader(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Read() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Read() = %#x, want %#x", got.Int(), tt.want.Int())
			}
		})
	}
}

func TestIsFat(t *testing.T) {
	tests := []struct {
		magic   macho.Magic
		fat     bool
		swap    bool
		isMachO bool
	}{
		{macho.Magic64, false, false, true},
		{macho.Magic32, false, false, true},
		{macho.MagicFatBE, true, false, true},
		{macho.MagicFatLE, true, true, true},
		{0xdeadbeef, false, false, false},
	}
	for _, tt := range tests {
		fat, swap := IsFat(tt.magic)
		if fat != tt.fat || swap != tt.swap {
			t.Errorf("IsFat(%#x) = (%v, %v), want (%v, %v)", tt.magic.Int(), fat, swap, tt.fat, tt.swap)
		}
		if got := IsMachO(tt.magic); got != tt.isMachO {
			t.Errorf("IsMachO(%#x) = %v, want %v", tt.magic.Int(), got, tt.isMachO)
		}
	}
}
