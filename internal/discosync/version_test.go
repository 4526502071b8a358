package discosync_test

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/JOJ0/discodos-sub001/internal/discosync"
)

func TestVersionCodec_Encode(t *testing.T) {
	codec := discosync.NewVersionCodec(time.UTC)

	tests := []struct {
		name  string
		path  string
		mtime int64
		want  string
	}{
		{
			name:  "absolute path uses base name",
			path:  "/home/user/.discodos/discobase.db",
			mtime: 1700000000,
			want:  "discobase.db_2023-11-14_221320",
		},
		{
			name:  "relative path",
			path:  "discobase.db",
			mtime: 1700000000,
			want:  "discobase.db_2023-11-14_221320",
		},
		{
			name:  "zero padded fields",
			path:  "/data/discobase.db",
			mtime: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Unix(),
			want:  "discobase.db_2024-01-02_030405",
		},
		{
			name:  "base name with underscores",
			path:  "/data/my_disco_base.db",
			mtime: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Unix(),
			want:  "my_disco_base.db_2024-01-01_120000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := codec.Encode(tt.path, tt.mtime); got != tt.want {
				t.Errorf("Encode(%q, %d) = %q, want %q", tt.path, tt.mtime, got, tt.want)
			}
		})
	}
}

func TestVersionCodec_Encode_usesCodecLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	codec := discosync.NewVersionCodec(loc)

	got := codec.Encode("discobase.db", 1700000000)
	want := "discobase.db_2023-11-15_001320"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestVersionCodec_Decode(t *testing.T) {
	codec := discosync.NewVersionCodec(time.UTC)

	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{
			name:  "valid name",
			input: "discobase.db_2023-11-14_221320",
			want:  1700000000,
		},
		{
			name:  "restore example",
			input: "discobase.db_2023-11-15_100000",
			want:  time.Date(2023, 11, 15, 10, 0, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "base name with digits and underscores",
			input: "disco_2.db_2024-01-01_120000",
			want:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Unix(),
		},
		{
			name:  "other non-digit delimiters",
			input: "discobase.db_2024.01.01-120000",
			want:  time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC).Unix(),
		},
		{name: "no date groups", input: "discobase.db", wantErr: true},
		{name: "month and time out of range", input: "discobase.db_2024-13-01_999999", wantErr: true},
		{name: "month 13", input: "discobase.db_2024-13-01_120000", wantErr: true},
		{name: "day 31 in a 30 day month", input: "discobase.db_2024-04-31_120000", wantErr: true},
		{name: "february 30", input: "discobase.db_2023-02-30_120000", wantErr: true},
		{name: "hour 24", input: "discobase.db_2024-01-01_240000", wantErr: true},
		{name: "minute 60", input: "discobase.db_2024-01-01_126000", wantErr: true},
		{name: "short time group", input: "discobase.db_2024-01-01_1200", wantErr: true},
		{name: "trailing text", input: "discobase.db_2024-01-01_120000.bak", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "five digit year", input: "discobase.db_10000-01-01_000000", wantErr: true},
		{name: "digit glued to year", input: "discobase.db12024-01-01_120000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.Decode(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Decode(%q) = %d, want error", tt.input, got)
				}
				if !errors.Is(err, discosync.ErrMalformedVersionName) {
					t.Errorf("Decode(%q) error = %v, want ErrMalformedVersionName", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Decode(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestVersionCodec_RoundTrip(t *testing.T) {
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-7", -7*60*60),
		time.FixedZone("UTC+5:30", 5*60*60+30*60),
	}
	epochs := []int64{0, 1, 59, 86399, 951782400, 1700000000, 1709208000, 2147483647, 4102444799}

	for _, loc := range zones {
		codec := discosync.NewVersionCodec(loc)
		for _, sec := range epochs {
			name := codec.Encode("/tmp/discobase.db", sec)
			got, err := codec.Decode(name)
			if err != nil {
				t.Errorf("[%s] Decode(%q) error = %v", loc, name, err)
				continue
			}
			if got != sec {
				t.Errorf("[%s] Decode(Encode(%d)) = %d", loc, sec, got)
			}
		}
	}
}

func TestVersionCodec_YearBeyond9999IsRejected(t *testing.T) {
	codec := discosync.NewVersionCodec(time.UTC)
	sec := time.Date(10000, 1, 1, 0, 0, 0, 0, time.UTC).Unix()

	name := codec.Encode("/tmp/discobase.db", sec)
	if name != "discobase.db_10000-01-01_000000" {
		t.Fatalf("Encode(%d) = %q", sec, name)
	}
	got, err := codec.Decode(name)
	if !errors.Is(err, discosync.ErrMalformedVersionName) {
		t.Errorf("Decode(%q) = %d, %v, want ErrMalformedVersionName", name, got, err)
	}
}

func TestVersionCodec_SameSecondSameName(t *testing.T) {
	codec := discosync.NewVersionCodec(time.UTC)
	a := codec.Encode("/a/discobase.db", 1700000000)
	b := codec.Encode("/b/discobase.db", 1700000000)
	if a != b {
		t.Errorf("names differ for the same base name and second: %q vs %q", a, b)
	}
}

func TestVersionCodec_DecodeTime(t *testing.T) {
	loc := time.FixedZone("UTC+1", 60*60)
	codec := discosync.NewVersionCodec(loc)

	got, err := codec.DecodeTime("discobase.db_2023-11-15_100000")
	if err != nil {
		t.Fatalf("DecodeTime() error = %v", err)
	}
	want := time.Date(2023, 11, 15, 10, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("DecodeTime() = %v, want %v", got, want)
	}
	if got.Location() != loc {
		t.Errorf("DecodeTime() location = %v, want %v", got.Location(), loc)
	}
}

func TestNewVersionCodec_nilLocationIsLocal(t *testing.T) {
	a := discosync.NewVersionCodec(nil).Encode("x.db", 1700000000)
	b := discosync.LocalVersionCodec().Encode("x.db", 1700000000)
	if a != b {
		t.Errorf("nil location codec = %q, local codec = %q", a, b)
	}
}
