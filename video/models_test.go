package video

import (
	"strings"
	"testing"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"fps too low", func(c *Config) { c.FPS = 0 }, "fps"},
		{"fps too high", func(c *Config) { c.FPS = 61 }, "fps"},
		{"bad video bitrate", func(c *Config) { c.VideoBitrate = "1000" }, "video bitrate"},
		{"bad audio bitrate", func(c *Config) { c.AudioBitrate = "128kbps" }, "audio bitrate"},
		{"zero free space", func(c *Config) { c.MinFreeSpaceGB = 0 }, "free space"},
		{"unknown preset", func(c *Config) { c.Preset = "warp9" }, "preset"},
		{"too many threads", func(c *Config) { c.Threads = 9 }, "threads"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate returned error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want mention of %q", err, tc.wantErr)
			}
		})
	}
}

func TestMixConfigValidate(t *testing.T) {
	if err := DefaultMixConfig().Validate(); err != nil {
		t.Fatalf("default mix config invalid: %v", err)
	}
	bad := MixConfig{MainVolume: 1.5, BackgroundVolume: 0.5}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for main volume above 1")
	}
	bad = MixConfig{MainVolume: 1.0, BackgroundVolume: -0.1}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected error for negative background volume")
	}
}

func TestInputValidate(t *testing.T) {
	in := Input{NarrationPath: "n.mp3", ImagePath: "i.png", OutputPath: "o.mp4"}
	if err := in.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	// Background music is optional.
	if in.BackgroundMusicPath != "" {
		t.Fatal("background music should default to empty")
	}
	for _, mutate := range []func(*Input){
		func(i *Input) { i.NarrationPath = "" },
		func(i *Input) { i.ImagePath = "" },
		func(i *Input) { i.OutputPath = "" },
	} {
		broken := in
		mutate(&broken)
		if err := broken.Validate(); err == nil {
			t.Errorf("expected error for %+v", broken)
		}
	}
}
